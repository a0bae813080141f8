package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDiffLabels(t *testing.T) {
	onlyLegacy, onlyGo := diffLabels([]string{"09:00", "09:30", "10:00"}, []string{"09:00", "10:00", "10:30"})
	assert.Equal(t, []string{"09:30"}, onlyLegacy)
	assert.Equal(t, []string{"10:30"}, onlyGo)

	onlyLegacy, onlyGo = diffLabels(nil, nil)
	assert.Empty(t, onlyLegacy)
	assert.Empty(t, onlyGo)
}

func TestDecodeGoSlotsKeepsAvailableOnly(t *testing.T) {
	labels, err := decodeGoSlots([]byte(`{"data":[{"time":"09:00","available":true},{"time":"09:30","available":false}],"meta":{}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, labels)
}

func TestRequestURLs(t *testing.T) {
	tc := testCase{ProviderID: "w1", StaffID: "e1", Date: "2026-06-15", Duration: 45}
	assert.Equal(t, "http://legacy/api/calendar/available-slots?date=2026-06-15&duration=45&employeeId=e1&workshopId=w1", legacyRequestURL("http://legacy/", tc))
	assert.Equal(t, "http://go/api/v1/availability?date=2026-06-15&duration=45&providerId=w1&staffId=e1", goRequestURL("http://go/api/v1", tc))
}

func TestComparerCompare(t *testing.T) {
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/calendar/available-slots", r.URL.Path)
		_, _ = w.Write([]byte(`{"availableSlots":["09:00","10:00"]}`))
	}))
	defer legacy.Close()
	goAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/availability", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"time":"09:00","available":true},{"time":"09:30","available":false},{"time":"10:00","available":true}]}`))
	}))
	defer goAPI.Close()

	cmp := &comparer{client: legacy.Client(), goBase: goAPI.URL + "/api/v1", legacyBase: legacy.URL, logger: zap.NewNop()}
	res := cmp.compare(context.Background(), testCase{Name: "weekday", ProviderID: "w1", Date: "2026-06-15", Critical: true})

	require.NoError(t, res.Error)
	assert.True(t, res.Match())

	var out bytes.Buffer
	breaking, optional := printReport(&out, []comparison{res})
	assert.Zero(t, breaking)
	assert.Zero(t, optional)
	assert.Contains(t, out.String(), "[OK] weekday")
}

func TestPrintReportCountsDiffs(t *testing.T) {
	results := []comparison{
		{Case: testCase{Name: "a", Critical: true}, LegacyStatus: 200, GoStatus: 200, OnlyGo: []string{"10:30"}},
		{Case: testCase{Name: "b"}, LegacyStatus: 400, GoStatus: 200},
	}
	var out bytes.Buffer
	breaking, optional := printReport(&out, results)
	assert.Equal(t, 1, breaking)
	assert.Equal(t, 1, optional)
	assert.Contains(t, out.String(), "Only go: 10:30")
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cases":[{"name":"x","providerId":"w1","date":"2026-06-15"}]}`), 0o600))
	cases, err := loadCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "w1", cases[0].ProviderID)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"cases":[]}`), 0o600))
	_, err = loadCases(empty)
	assert.Error(t, err)
}
