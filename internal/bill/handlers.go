package bill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// requestUser identifies the caller from the X-User-ID header. Auth proper
// sits in front of this service, callers without the header share the
// anonymous bucket.
func requestUser(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return "anonymous"
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleListBills returns the caller's bills
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills(requestUser(r))
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if bills == nil {
		bills = []*Bill{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bills); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadBill handles bill upload and analysis
func (s *Server) handleUploadBill(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB to handle high-resolution phone photos)
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		json.NewEncoder(w).Encode(map[string]string{
			"error": errorMsg,
		})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		json.NewEncoder(w).Encode(map[string]string{
			"error": errorMsg,
		})
		return
	}
	defer f.Close()

	// Check file size before reading
	if header.Size > maxFormSize {
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "File is too large. Maximum size is 50MB. Please compress or resize your image.",
		})
		return
	}

	// Read file data
	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Error reading file. Please try again.",
		})
		return
	}

	// Determine content type
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}

	// Normalize content type for common phone formats
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	analysis, err := s.service.ProcessBill(r.Context(), header.Filename, data, contentType, requestUser(r))
	if err != nil {
		slog.Error("Error processing bill", "filename", header.Filename, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidImage) {
			status = http.StatusBadRequest
		}
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(analysis); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBill returns a single bill
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Bill ID required", http.StatusBadRequest)
		return
	}
	bill, err := s.service.GetBill(id, requestUser(r))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Bill not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting bill", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bill); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBillImage returns the stored upload for a bill
func (s *Server) handleGetBillImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Bill ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetBillImage(id, requestUser(r))
	if err != nil {
		message := "Image not found"
		if errors.Is(err, ErrNotFound) {
			message = "Bill not found"
		}
		corsError(w, message, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteBill deletes a bill and its stored image
func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Bill ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteBill(id, requestUser(r)); err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Bill not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting bill", "id", id, "error", err)
		corsError(w, "Error deleting bill", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetInsights returns the caller's spending insights
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.service.GetInsights(requestUser(r))
	if err != nil {
		slog.Error("Error building insights", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(insights); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGenerateShoppingList creates and stores a budget-bound shopping list
func (s *Server) handleGenerateShoppingList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Budget float64 `json:"budget"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Budget <= 0 {
		corsError(w, "Budget must be positive", http.StatusBadRequest)
		return
	}

	list, err := s.service.GenerateShoppingList(r.Context(), requestUser(r), req.Budget)
	if err != nil {
		slog.Error("Error generating shopping list", "error", err)
		setCORSHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(list); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListShoppingLists returns the caller's stored shopping lists
func (s *Server) handleListShoppingLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.service.ListShoppingLists(requestUser(r))
	if err != nil {
		slog.Error("Error listing shopping lists", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if lists == nil {
		lists = []*ShoppingList{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(lists); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleExportBills streams the caller's bills as an XLSX attachment
func (s *Server) handleExportBills(w http.ResponseWriter, r *http.Request) {
	workbook, err := s.service.ExportBills(requestUser(r))
	if err != nil {
		slog.Error("Error exporting bills", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bills.xlsx"`)
	w.Write(workbook)
}
