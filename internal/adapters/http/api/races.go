package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/types"
)

const (
	defaultMaxUploadBytes = 32 << 20
	multipartMemory       = 4 << 20
)

// RaceDependencies defines the interface for submitting result files.
type RaceDependencies interface {
	Submit(ctx context.Context, j model.Job) (types.SubmitResult, error)
}

// RacesHandler handles result file submissions.
type RacesHandler struct {
	deps      RaceDependencies
	uploadDir string
	pathRoot  string
	maxBytes  int64
}

// NewRacesHandler creates a new races handler storing uploads under uploadDir.
func NewRacesHandler(deps RaceDependencies, uploadDir string) *RacesHandler {
	return &RacesHandler{deps: deps, uploadDir: uploadDir, maxBytes: defaultMaxUploadBytes}
}

// raceRequest mirrors the OpenAPI schema for a JSON POST /races, which names
// a file under the configured path root.
type raceRequest struct {
	JobID      string `json:"job_id"`
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	RaceNumber int    `json:"race_number"`
	RaceName   string `json:"race_name"`
	DistanceKm int    `json:"distance_km"`
}

func (r raceRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Path) == "":
		return errors.New("missing path")
	case r.DistanceKm < 0:
		return errors.New("distance_km must not be negative")
	case r.RaceNumber < 0:
		return errors.New("race_number must not be negative")
	}
	return nil
}

func (r raceRequest) job() model.Job {
	return model.Job{
		ID:       strings.TrimSpace(r.JobID),
		Path:     r.Path,
		Filename: r.Filename,
		Race: model.RaceDistance{
			Number:     r.RaceNumber,
			Name:       strings.TrimSpace(r.RaceName),
			DistanceKm: r.DistanceKm,
		},
	}
}

// HandlePostRace handles POST /races. A multipart body uploads the file in
// its "file" part; a JSON body names a path under the path root.
func (h *RacesHandler) HandlePostRace(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_race"

	var (
		job model.Job
		err error
	)
	if isMultipart(r) {
		job, err = h.readUpload(w, r)
	} else {
		job, err = h.readRaceJSON(r)
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	res, err := h.deps.Submit(r.Context(), job)
	if job.Upload && (err != nil || res.Duplicate) {
		_ = os.RemoveAll(filepath.Dir(job.Path))
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *RacesHandler) readRaceJSON(r *http.Request) (model.Job, error) {
	var req raceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return model.Job{}, WrapKind("decode", ErrBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return model.Job{}, WrapKind("validate", ErrBadRequest, err)
	}
	path, err := confine(h.pathRoot, req.Path)
	if err != nil {
		return model.Job{}, WrapKind("path", ErrForbidden, err)
	}
	req.Path = path
	return req.job(), nil
}

// confine resolves path against root and rejects anything outside it.
// Relative paths are taken from root; symlinks are followed when they exist.
func confine(root, path string) (string, error) {
	if root == "" {
		return "", errors.New("path submissions are disabled")
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	base = resolve(base)

	p := filepath.Clean(path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	p = resolve(p)

	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return p, nil
}

// resolve follows symlinks in p, or in its directory when p does not exist.
func resolve(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	if r, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		return filepath.Join(r, filepath.Base(p))
	}
	return p
}

// readUpload stores the uploaded file in a fresh directory under uploadDir,
// keeping its original name so race metadata can be read from it.
func (h *RacesHandler) readUpload(w http.ResponseWriter, r *http.Request) (model.Job, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return model.Job{}, WrapKind("multipart", ErrBadRequest, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := raceRequest{
		JobID:    r.FormValue("job_id"),
		RaceName: r.FormValue("race_name"),
	}
	var err error
	if req.RaceNumber, err = formInt(r, "race_number"); err != nil {
		return model.Job{}, WrapKind("multipart", ErrBadRequest, err)
	}
	if req.DistanceKm, err = formInt(r, "distance_km"); err != nil {
		return model.Job{}, WrapKind("multipart", ErrBadRequest, err)
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return model.Job{}, WrapKind("multipart", ErrBadRequest, fmt.Errorf("missing file part: %w", err))
	}
	defer f.Close()

	name := filepath.Base(strings.ReplaceAll(hdr.Filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return model.Job{}, NewKind("multipart", ErrBadRequest)
	}

	dir, err := os.MkdirTemp(h.uploadDir, "upload-*")
	if err != nil {
		return model.Job{}, WrapKind("store", ErrUpload, err)
	}
	req.Path = filepath.Join(dir, name)
	req.Filename = name
	if err := copyFile(req.Path, f); err != nil {
		_ = os.RemoveAll(dir)
		return model.Job{}, WrapKind("store", ErrUpload, err)
	}
	if err := req.validate(); err != nil {
		_ = os.RemoveAll(dir)
		return model.Job{}, WrapKind("validate", ErrBadRequest, err)
	}

	job := req.job()
	job.Upload = true
	return job, nil
}

func copyFile(path string, src io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
