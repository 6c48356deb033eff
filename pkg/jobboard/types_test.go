package jobboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumedge/backend/pkg/jobboard"
)

// Only jobboard names are used here, as a caller outside the module would.
func TestClientFromOutsideTheModule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req jobboard.CreateJobRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(jobboard.Job{
			Title:   req.Title,
			Price:   req.Price,
			JobType: req.JobType,
			Skills:  req.Skills,
			Status:  jobboard.StatusActive,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	session, err := jobboard.NewSession(nil)
	require.NoError(t, err)
	client := jobboard.NewClient(srv.URL, session, 5*time.Second)

	budget := 800.0
	var job *jobboard.Job
	job, err = client.CreateJob(context.Background(), jobboard.CreateJobRequest{
		Title:   "Go Dev",
		Price:   &jobboard.Price{Fixed: &budget},
		JobType: jobboard.JobTypeFixed,
		Skills:  jobboard.ParseSkills("Go, gRPC,"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Go Dev", job.Title)
	assert.Equal(t, []string{"Go", "gRPC"}, job.Skills)
	assert.Equal(t, jobboard.StatusActive, job.Status)

	var seen *jobboard.User
	session.Subscribe(func(u *jobboard.User) { seen = u })
	require.NoError(t, session.Set(&jobboard.AuthResponse{Token: "t", User: &jobboard.User{Email: "a@b.com"}}))
	require.NotNil(t, seen)
	assert.Equal(t, "a@b.com", seen.Email)
}
