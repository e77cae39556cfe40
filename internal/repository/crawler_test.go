package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/06wuuntt/NTUT-Coursesystem/pkg/config"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
)

func newTestCrawler(t *testing.T, handler http.Handler) *Crawler {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCrawler(config.UpstreamConfig{
		BaseURL: server.URL + "/",
		System:  "main",
		Timeout: 5 * time.Second,
	}, nil)
}

func TestCrawlerSemesters(t *testing.T) {
	crawler := newTestCrawler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/main.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"114":[1,2],"113":[1,2]}`))
	}))

	semesters, err := crawler.Semesters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, semesters["114"])
}

func TestCrawlerCoursesPath(t *testing.T) {
	crawler := newTestCrawler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/114/1/main.json", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"101"},{"id":"102"}]`))
	}))

	courses, err := crawler.Courses(context.Background(), "114", "1")
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestCrawlerSyllabusNotFound(t *testing.T) {
	crawler := newTestCrawler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := crawler.Syllabus(context.Background(), "114", "1", "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCrawlerUpstreamError(t *testing.T) {
	crawler := newTestCrawler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := crawler.Semesters(context.Background())
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}

func TestStringOrNumber(t *testing.T) {
	crawler := newTestCrawler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"category":"工程學院","name":"資工系","class":[{"id":2788,"code":"3012","name":"資工一甲"}]}]`))
	}))

	departments, err := crawler.Departments(context.Background(), "114", "1")
	require.NoError(t, err)
	require.Len(t, departments, 1)
	require.Len(t, departments[0].Class, 1)
	assert.Equal(t, StringOrNumber("2788"), departments[0].Class[0].ID)
	assert.Equal(t, StringOrNumber("3012"), departments[0].Class[0].Code)
}
