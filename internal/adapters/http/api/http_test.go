package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/okian/racerank/internal/adapters/http/api"
	"github.com/okian/racerank/internal/adapters/repository"
	service "github.com/okian/racerank/internal/app"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records submissions and serves canned reads.
type mockDependencies struct {
	mu        sync.Mutex
	submitted []model.Job
	uploaded  map[string]string // path -> content at submit time
	seen      map[string]bool
	submitErr error

	jobs           map[string]types.JobStatus
	standings      []types.Standing
	standingsErr   error
	classification []types.ClassificationEntry
	rank           types.Standing
	rankErr        error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		seen:     make(map[string]bool),
		uploaded: make(map[string]string),
		jobs:     make(map[string]types.JobStatus),
	}
}

func (m *mockDependencies) Submit(_ context.Context, j model.Job) (types.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return types.SubmitResult{}, m.submitErr
	}
	if j.ID == "" {
		j.ID = fmt.Sprintf("job-%d", len(m.submitted)+1)
	}
	if m.seen[j.ID] {
		return types.SubmitResult{JobID: j.ID, State: types.JobPending, Duplicate: true}, nil
	}
	m.seen[j.ID] = true
	if j.Upload {
		b, _ := os.ReadFile(j.Path)
		m.uploaded[j.Path] = string(b)
	}
	m.submitted = append(m.submitted, j)
	return types.SubmitResult{JobID: j.ID, State: types.JobPending}, nil
}

func (m *mockDependencies) Job(_ context.Context, id string) (types.JobStatus, error) {
	st, ok := m.jobs[id]
	if !ok {
		return types.JobStatus{}, fmt.Errorf("%w: %s", service.ErrJobNotFound, id)
	}
	return st, nil
}

func (m *mockDependencies) Classification(context.Context) ([]types.ClassificationEntry, error) {
	return m.classification, nil
}

func (m *mockDependencies) Standings(_ context.Context, n int) ([]types.Standing, error) {
	if m.standingsErr != nil {
		return nil, m.standingsErr
	}
	if n > len(m.standings) {
		return m.standings, nil
	}
	return m.standings[:n], nil
}

func (m *mockDependencies) Rank(context.Context, string, string) (types.Standing, error) {
	if m.rankErr != nil {
		return types.Standing{}, m.rankErr
	}
	return m.rank, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newMux(deps *mockDependencies, opts ...api.ServerOption) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"started": true}}, 10, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func uploadRequest(filename, content string, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		part, _ := mw.CreateFormFile("file", filename)
		_, _ = part.Write([]byte(content))
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/races", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("Then the health endpoint exposes Prometheus metrics", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint returns JSON", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And the classification endpoint returns an empty list", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/classification", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("And routes reject other methods", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/races", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestRacesHandler_JSON(t *testing.T) {
	Convey("Given the races endpoint with a path root", t, func() {
		deps := newMockDependencies()
		root := t.TempDir()
		mux := newMux(deps, api.WithPathRoot(root))
		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/races", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			return do(mux, req)
		}
		inRoot := filepath.Join(root, "2024-05-12_Namur_Namur_SH_10km.pdf")

		Convey("When a path under the root is submitted", func() {
			w := post(fmt.Sprintf(`{"job_id":"namur","path":%q,"race_name":"Namur","distance_km":10}`, inRoot))

			Convey("Then it is accepted and forwarded", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"job_id":"namur"`)
				So(deps.submitted, ShouldHaveLength, 1)
				So(filepath.Base(deps.submitted[0].Path), ShouldEqual, "2024-05-12_Namur_Namur_SH_10km.pdf")
				So(deps.submitted[0].Race.Name, ShouldEqual, "Namur")
				So(deps.submitted[0].Race.DistanceKm, ShouldEqual, 10)
				So(deps.submitted[0].Upload, ShouldBeFalse)
			})

			Convey("And resubmitting it is reported as a duplicate", func() {
				w2 := post(fmt.Sprintf(`{"job_id":"namur","path":%q}`, inRoot))
				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w2.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("When a relative path is submitted", func() {
			w := post(`{"path":"spring/a.csv"}`)

			Convey("Then it is resolved inside the root", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.submitted[0].Path, ShouldEndWith, filepath.Join("spring", "a.csv"))
				So(filepath.IsAbs(deps.submitted[0].Path), ShouldBeTrue)
			})
		})

		Convey("When a path escapes the root", func() {
			for _, p := range []string{"/etc/passwd.csv", "../outside.csv", filepath.Join(root, "..", "x.csv")} {
				w := post(fmt.Sprintf(`{"path":%q}`, p))
				So(w.Code, ShouldEqual, http.StatusForbidden)
				So(errorCode(w), ShouldEqual, "forbidden")
			}
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("When the body is invalid", func() {
			So(post(`{`).Code, ShouldEqual, http.StatusBadRequest)
			w := post(`{"job_id":"x"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
			So(w.Body.String(), ShouldContainSubstring, "missing path")
			So(post(`{"path":"a.csv","distance_km":-1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service pushes back", func() {
			deps.submitErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			w := post(`{"path":"a.csv"}`)

			Convey("Then 429 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(errorCode(w), ShouldEqual, "backpressure")
			})
		})

		Convey("When the file type is unsupported", func() {
			deps.submitErr = fmt.Errorf("%w: notes.docx", service.ErrUnsupportedFile)
			w := post(`{"path":"notes.docx"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "unsupported_file")
		})

		Convey("When the service is not started", func() {
			deps.submitErr = service.ErrNotStarted
			So(post(`{"path":"a.csv"}`).Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})

	Convey("Given the races endpoint without a path root", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)
		req := httptest.NewRequest(http.MethodPost, "/races", strings.NewReader(`{"path":"/data/a.csv"}`))
		req.Header.Set("Content-Type", "application/json")
		w := do(mux, req)

		Convey("Then path submissions are refused", func() {
			So(w.Code, ShouldEqual, http.StatusForbidden)
			So(w.Body.String(), ShouldContainSubstring, "disabled")
			So(deps.submitted, ShouldBeEmpty)
		})
	})
}

func TestRacesHandler_Upload(t *testing.T) {
	Convey("Given the races endpoint with an upload directory", t, func() {
		deps := newMockDependencies()
		dir := t.TempDir()
		mux := newMux(deps, api.WithUploadDir(dir))

		Convey("When a result file is uploaded", func() {
			req := uploadRequest("2024-05-12_Namur_Namur_SH_10km.csv", "Pl.;Nom;Temps\n", map[string]string{
				"job_id":      "up-1",
				"distance_km": "10",
			})
			w := do(mux, req)

			Convey("Then the file is stored under its original name", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.submitted, ShouldHaveLength, 1)
				j := deps.submitted[0]
				So(j.Upload, ShouldBeTrue)
				So(j.Filename, ShouldEqual, "2024-05-12_Namur_Namur_SH_10km.csv")
				So(filepath.Base(j.Path), ShouldEqual, j.Filename)
				So(strings.HasPrefix(j.Path, dir), ShouldBeTrue)
				So(j.Race.DistanceKm, ShouldEqual, 10)
				So(deps.uploaded[j.Path], ShouldEqual, "Pl.;Nom;Temps\n")
			})
		})

		Convey("When the same job is uploaded twice", func() {
			fields := map[string]string{"job_id": "up-2"}
			do(mux, uploadRequest("a.csv", "x", fields))
			w := do(mux, uploadRequest("a.csv", "x", fields))

			Convey("Then the duplicate copy is discarded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When the file part is missing", func() {
			w := do(mux, uploadRequest("", "", map[string]string{"job_id": "up-3"}))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a numeric field is malformed", func() {
			w := do(mux, uploadRequest("a.csv", "x", map[string]string{"distance_km": "ten"}))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "distance_km")
		})

		Convey("When the submission is rejected", func() {
			deps.submitErr = service.ErrBackpressure
			w := do(mux, uploadRequest("a.csv", "x", nil))

			Convey("Then the stored copy is removed", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestJobsHandler(t *testing.T) {
	Convey("Given a known job", t, func() {
		deps := newMockDependencies()
		deps.jobs["namur"] = types.JobStatus{ID: "namur", State: types.JobDone, Entries: 3}
		mux := newMux(deps)

		Convey("Then its status is returned", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/jobs/namur", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusOK)
			var st types.JobStatus
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.State, ShouldEqual, types.JobDone)
			So(st.Entries, ShouldEqual, 3)
		})

		Convey("And an unknown job is 404", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/jobs/other", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})
	})
}

func TestStandingsHandler(t *testing.T) {
	Convey("Given season standings", t, func() {
		deps := newMockDependencies()
		deps.standings = []types.Standing{
			{Rank: 1, FirstName: "Jean", LastName: "Dupont", Points: 1967},
			{Rank: 2, FirstName: "Anne", LastName: "Lambert", Points: 1857},
		}
		mux := newMux(deps)
		get := func(url string) *httptest.ResponseRecorder {
			return do(mux, httptest.NewRequest(http.MethodGet, url, http.NoBody))
		}

		Convey("When a limit is given", func() {
			w := get("/standings?limit=1")
			var got []types.Standing
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)

			Convey("Then only that many rows are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(got, ShouldHaveLength, 1)
				So(got[0].LastName, ShouldEqual, "Dupont")
			})
		})

		Convey("When no limit is given", func() {
			w := get("/standings")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Lambert")
		})

		Convey("When the limit is invalid or too large", func() {
			So(get("/standings?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			So(get("/standings?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			w := get("/standings?limit=11")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})

		Convey("When the store fails", func() {
			deps.standingsErr = errors.New("boom")
			So(get("/standings?limit=5").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given the rank endpoint", t, func() {
		deps := newMockDependencies()
		deps.rank = types.Standing{Rank: 2, FirstName: "Anne", LastName: "Lambert", Points: 1857}
		mux := newMux(deps)

		Convey("Then a member's standing is returned", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/rank?first_name=Anne&last_name=Lambert", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"rank":2`)
		})

		Convey("And a missing last name is rejected", func() {
			w := do(mux, httptest.NewRequest(http.MethodGet, "/rank?first_name=Anne", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("And an unknown member is 404", func() {
			deps.rankErr = repository.ErrNotFound
			w := do(mux, httptest.NewRequest(http.MethodGet, "/rank?first_name=Zoe&last_name=Nobody", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		cause := errors.New("missing path")

		Convey("Then kinds and causes are both matchable", func() {
			err := api.WrapKind("api.post_race", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.post_race: bad request: missing path")

			So(errors.Is(api.NewKind("op", api.ErrNotFound), api.ErrNotFound), ShouldBeTrue)
			So(api.Wrap("op", nil), ShouldBeNil)
			So(errors.Is(api.Wrap("op", cause), cause), ShouldBeTrue)
		})
	})
}
