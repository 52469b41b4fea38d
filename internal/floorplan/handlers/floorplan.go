package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"floorplan-server/internal/floorplan"
	"floorplan-server/internal/schedule"
	"floorplan-server/internal/shared/errors"
	"floorplan-server/internal/shared/response"
)

const maxJSONBodyBytes = 1 << 20 // 1 MB

// Raster formats only. Uploads are served from the API origin, where an
// SVG could run script.
var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type Options struct {
	ImageDir       string
	ImageURLPrefix string
	MaxUploadBytes int64
}

type FloorplanHandler struct {
	service  *floorplan.Service
	validate *validator.Validate
	opts     Options
}

func NewFloorplanHandler(service *floorplan.Service, opts Options) *FloorplanHandler {
	if opts.ImageURLPrefix == "" {
		opts.ImageURLPrefix = "/static/floorplans/"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &FloorplanHandler{
		service:  service,
		validate: validator.New(),
		opts:     opts,
	}
}

type createMapRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type createSpaceRequest struct {
	Name string   `json:"name" validate:"required,max=200"`
	Type string   `json:"type" validate:"required,max=100"`
	X    *float64 `json:"x" validate:"required,gte=0,lte=1"`
	Y    *float64 `json:"y" validate:"required,gte=0,lte=1"`
}

type createHallwayRequest struct {
	Name string   `json:"name" validate:"max=200"`
	X1   *float64 `json:"x1" validate:"required,gte=0,lte=1"`
	Y1   *float64 `json:"y1" validate:"required,gte=0,lte=1"`
	X2   *float64 `json:"x2" validate:"required,gte=0,lte=1"`
	Y2   *float64 `json:"y2" validate:"required,gte=0,lte=1"`
}

type routeRequest struct {
	FromSpaceID *int `json:"from_space_id" validate:"required"`
	ToSpaceID   *int `json:"to_space_id" validate:"required"`
}

type congestionRequest struct {
	FromPeriodIndex *int   `json:"from_period_index" validate:"required"`
	ToPeriodIndex   *int   `json:"to_period_index" validate:"required"`
	FilterSpaceID   *int   `json:"filter_space_id"`
	FilterDirection string `json:"filter_direction"`
}

type floorplanUploadResponse struct {
	URL string `json:"url"`
}

// decode reads a JSON body into dst and runs struct validation
func (h *FloorplanHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WrapValidation("invalid JSON in request body", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.WrapValidation("invalid request", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, errors.Validationf("%s is required", name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.WrapValidation(fmt.Sprintf("invalid %s format", name), err)
	}
	return id, nil
}

func (h *FloorplanHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, h.service.ListMaps(r.Context()))
}

func (h *FloorplanHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_map")

	var req createMapRequest
	if err := h.decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	m, err := h.service.CreateMap(r.Context(), req.Name)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, m)
}

func (h *FloorplanHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_map")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	m, err := h.service.GetMap(r.Context(), mapID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, m)
}

func (h *FloorplanHandler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_map")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := h.service.DeleteMap(r.Context(), mapID); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]int{"deleted_map_id": mapID})
}

func (h *FloorplanHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_spaces")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	spaces, err := h.service.ListSpaces(r.Context(), mapID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, spaces)
}

func (h *FloorplanHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_space")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req createSpaceRequest
	if err := h.decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	space, err := h.service.CreateSpace(r.Context(), mapID, floorplan.SpaceInput{
		Name: req.Name,
		Type: req.Type,
		X:    *req.X,
		Y:    *req.Y,
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, space)
}

func (h *FloorplanHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_space")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	spaceID, err := pathID(r, "spaceId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.DeleteSpace(r.Context(), mapID, spaceID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

func (h *FloorplanHandler) ListHallways(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_hallways")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	hallways, err := h.service.ListHallways(r.Context(), mapID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, hallways)
}

func (h *FloorplanHandler) CreateHallway(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_hallway")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req createHallwayRequest
	if err := h.decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	hallway, err := h.service.CreateHallway(r.Context(), mapID, floorplan.HallwayInput{
		Name: req.Name,
		X1:   *req.X1,
		Y1:   *req.Y1,
		X2:   *req.X2,
		Y2:   *req.Y2,
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, hallway)
}

func (h *FloorplanHandler) DeleteHallway(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_hallway")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	hallwayID, err := pathID(r, "hallwayId")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.DeleteHallway(r.Context(), mapID, hallwayID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

func (h *FloorplanHandler) Route(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "route")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req routeRequest
	if err := h.decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	route, err := h.service.Route(r.Context(), mapID, *req.FromSpaceID, *req.ToSpaceID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, route)
}

func (h *FloorplanHandler) Congestion(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "congestion")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req congestionRequest
	if err := h.decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	report, err := h.service.Congestion(r.Context(), mapID, floorplan.CongestionQuery{
		FromPeriod:    *req.FromPeriodIndex,
		ToPeriod:      *req.ToPeriodIndex,
		FilterSpaceID: req.FilterSpaceID,
		Direction:     floorplan.ParseDirection(req.FilterDirection),
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, report)
}

func (h *FloorplanHandler) UploadSchedule(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "upload_schedule")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	file, header, err := h.formFile(w, r, "schedule")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	defer file.Close()

	table, err := schedule.Parse(file)
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid schedule CSV", err))
		return
	}

	result, err := h.service.LoadSchedule(r.Context(), mapID, table)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Schedule uploaded",
		"map_id", mapID,
		"filename", header.Filename,
		"students", result.NumStudents,
		"unmatched_rooms", len(result.UnmatchedRooms))

	response.Success(w, http.StatusOK, result)
}

func (h *FloorplanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_schedule")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	info, err := h.service.ScheduleInfo(r.Context(), mapID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, info)
}

func (h *FloorplanHandler) UploadFloorplan(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "upload_floorplan")

	mapID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	// Fail fast before reading the upload
	if _, err := h.service.GetMap(r.Context(), mapID); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	file, header, err := h.formFile(w, r, "floorplan")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		response.Error(w, r, logger, errors.Validationf("unsupported floorplan image type %q", ext))
		return
	}

	name := fmt.Sprintf("map-%d-%s%s", mapID, uuid.NewString(), ext)
	if err := h.saveImage(file, name); err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to store floorplan image", err))
		return
	}

	url := h.opts.ImageURLPrefix + name
	if err := h.service.SetFloorplanImage(r.Context(), mapID, url); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Floorplan image stored", "map_id", mapID, "filename", header.Filename, "url", url)
	response.Success(w, http.StatusOK, floorplanUploadResponse{URL: url})
}

func (h *FloorplanHandler) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return nil, nil, errors.Validationf("upload exceeds %d bytes", h.opts.MaxUploadBytes)
		}
		return nil, nil, errors.WrapValidation("invalid multipart form", err)
	}

	file, fh, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errors.Validationf("missing %q file part", field)
	}
	if fh.Filename == "" {
		file.Close()
		return nil, nil, errors.Validation("no file selected")
	}

	return file, fh, nil
}

func (h *FloorplanHandler) saveImage(src io.Reader, name string) error {
	if err := os.MkdirAll(h.opts.ImageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	path := filepath.Join(h.opts.ImageDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close image file: %w", err)
	}
	return nil
}
