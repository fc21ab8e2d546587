package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"snowgate/core"
	"snowgate/services"
)

// AdminAPIHandler exposes the warehouse operations over plain REST, without
// going through the chat platform. Useful for direct API access and testing.
type AdminAPIHandler struct {
	warehouseService services.WarehouseOperationsService
	employeesService services.EmployeesService
}

func NewAdminAPIHandler(
	warehouseService services.WarehouseOperationsService,
	employeesService services.EmployeesService,
) *AdminAPIHandler {
	return &AdminAPIHandler{
		warehouseService: warehouseService,
		employeesService: employeesService,
	}
}

type onboardRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type resetCredentialRequest struct {
	Username string `json:"username"`
}

type createEmployeeRequest struct {
	Name       string          `json:"name"`
	Department string          `json:"department"`
	Salary     decimal.Decimal `json:"salary"`
}

type updateEmployeeRequest struct {
	Name       *string          `json:"name"`
	Department *string          `json:"department"`
	Salary     *decimal.Decimal `json:"salary"`
}

func (h *AdminAPIHandler) HandleOnboardUser(w http.ResponseWriter, r *http.Request) {
	var body onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.warehouseService.Onboard(r.Context(), body.Username, body.Role)
	if err != nil {
		log.Printf("❌ Onboard failed | error=%v", err)
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, "User '"+result.Account+"' created and ready to login", result)
}

func (h *AdminAPIHandler) HandleResetCredential(w http.ResponseWriter, r *http.Request) {
	var body resetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.warehouseService.ResetCredential(r.Context(), body.Username)
	if err != nil {
		log.Printf("❌ Credential reset failed | error=%v", err)
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, "Credential reset for '"+result.Account+"'", result)
}

func (h *AdminAPIHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.warehouseService.ListUsers(r.Context())
	if err != nil {
		log.Printf("❌ List users failed | error=%v", err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "", users)
}

func (h *AdminAPIHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	if err := h.employeesService.Setup(r.Context()); err != nil {
		log.Printf("❌ Setup failed | error=%v", err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "EMPLOYEES demo table created", nil)
}

func (h *AdminAPIHandler) HandleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var body createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.employeesService.Create(r.Context(), body.Name, body.Department, body.Salary); err != nil {
		log.Printf("❌ Insert failed | error=%v", err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "employee created", nil)
}

func (h *AdminAPIHandler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := h.employeesService.List(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		log.Printf("❌ Select failed | error=%v", err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "", rows)
}

func (h *AdminAPIHandler) HandleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var body updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.employeesService.Update(r.Context(), id, body.Name, body.Department, body.Salary); err != nil {
		log.Printf("❌ Update failed | error=%v", err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "employee updated", nil)
}

func (h *AdminAPIHandler) HandleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := h.employeesService.Delete(r.Context(), id); err != nil {
		log.Printf("❌ Delete failed | error=%v", err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, "employee deleted", nil)
}

func (h *AdminAPIHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering Snowflake admin endpoints on /snowflake")
	router.HandleFunc("/snowflake/users/onboard", h.HandleOnboardUser).Methods("POST")
	router.HandleFunc("/snowflake/users/reset-credential", h.HandleResetCredential).Methods("POST")
	router.HandleFunc("/snowflake/users", h.HandleListUsers).Methods("GET")
	router.HandleFunc("/snowflake/setup", h.HandleSetup).Methods("POST")
	router.HandleFunc("/snowflake/employees", h.HandleCreateEmployee).Methods("POST")
	router.HandleFunc("/snowflake/employees", h.HandleListEmployees).Methods("GET")
	router.HandleFunc("/snowflake/employees/{id}", h.HandleUpdateEmployee).Methods("PUT")
	router.HandleFunc("/snowflake/employees/{id}", h.HandleDeleteEmployee).Methods("DELETE")
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiResponse{Status: "success", Message: message, Data: data}); err != nil {
		log.Printf("❌ Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Status: "error", Message: message}); err != nil {
		log.Printf("❌ Failed to write error response: %v", err)
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses: validation
// errors are the caller's fault, everything else is the backend's
func writeServiceError(w http.ResponseWriter, err error) {
	if core.IsValidationError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
