package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// testCase names one availability question asked of both systems.
type testCase struct {
	Name       string `json:"name"`
	ProviderID string `json:"providerId"`
	StaffID    string `json:"staffId,omitempty"`
	Date       string `json:"date"`
	Duration   int    `json:"duration,omitempty"`
	Critical   bool   `json:"critical"`
}

type targetsFile struct {
	Cases []testCase `json:"cases"`
}

type comparison struct {
	Case           testCase
	LegacyStatus   int
	GoStatus       int
	OnlyLegacy     []string
	OnlyGo         []string
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

// Match reports whether both systems offered the same slots.
func (c comparison) Match() bool {
	return c.Error == nil && c.LegacyStatus == c.GoStatus && len(c.OnlyLegacy) == 0 && len(c.OnlyGo) == 0
}

type comparer struct {
	client     *http.Client
	goBase     string
	legacyBase string
	logger     *zap.Logger
}

func loadCases(path string) ([]testCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("no cases defined in %s", path)
	}
	return file.Cases, nil
}

func (c *comparer) compare(ctx context.Context, tc testCase) comparison {
	result := comparison{Case: tc}

	legacyURL := legacyRequestURL(c.legacyBase, tc)
	legacyStatus, legacyBody, legacyDur, err := c.get(ctx, legacyURL)
	result.LegacyStatus, result.DurationLegacy = legacyStatus, legacyDur
	if err != nil {
		result.Error = fmt.Errorf("legacy request failed: %w", err)
		return result
	}

	goURL := goRequestURL(c.goBase, tc)
	goStatus, goBody, goDur, err := c.get(ctx, goURL)
	result.GoStatus, result.DurationGo = goStatus, goDur
	if err != nil {
		result.Error = fmt.Errorf("go request failed: %w", err)
		return result
	}

	if legacyStatus != http.StatusOK || goStatus != http.StatusOK {
		return result
	}

	legacySlots, err := decodeLegacySlots(legacyBody)
	if err != nil {
		result.Error = fmt.Errorf("decode legacy body: %w", err)
		return result
	}
	goSlots, err := decodeGoSlots(goBody)
	if err != nil {
		result.Error = fmt.Errorf("decode go body: %w", err)
		return result
	}

	result.OnlyLegacy, result.OnlyGo = diffLabels(legacySlots, goSlots)
	return result
}

func (c *comparer) get(ctx context.Context, target string) (int, []byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.logger.Debug("shadow_request", zap.String("url", target), zap.Int("status", resp.StatusCode), zap.Duration("latency", elapsed))
	if err != nil {
		return resp.StatusCode, nil, elapsed, err
	}
	return resp.StatusCode, body, elapsed, nil
}

func legacyRequestURL(base string, tc testCase) string {
	q := url.Values{}
	q.Set("workshopId", tc.ProviderID)
	q.Set("date", tc.Date)
	if tc.StaffID != "" {
		q.Set("employeeId", tc.StaffID)
	}
	if tc.Duration > 0 {
		q.Set("duration", strconv.Itoa(tc.Duration))
	}
	return strings.TrimRight(base, "/") + "/api/calendar/available-slots?" + q.Encode()
}

func goRequestURL(base string, tc testCase) string {
	q := url.Values{}
	q.Set("providerId", tc.ProviderID)
	q.Set("date", tc.Date)
	if tc.StaffID != "" {
		q.Set("staffId", tc.StaffID)
	}
	if tc.Duration > 0 {
		q.Set("duration", strconv.Itoa(tc.Duration))
	}
	return strings.TrimRight(base, "/") + "/availability?" + q.Encode()
}

func decodeLegacySlots(body []byte) ([]string, error) {
	var payload struct {
		AvailableSlots []string `json:"availableSlots"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.AvailableSlots, nil
}

// decodeGoSlots returns the labels of available slots only, the shape the legacy endpoint reports.
func decodeGoSlots(body []byte) ([]string, error) {
	var payload struct {
		Data []struct {
			Time      string `json:"time"`
			Available bool   `json:"available"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(payload.Data))
	for _, slot := range payload.Data {
		if slot.Available {
			labels = append(labels, slot.Time)
		}
	}
	return labels, nil
}

func diffLabels(legacy, goSlots []string) (onlyLegacy, onlyGo []string) {
	inLegacy := make(map[string]struct{}, len(legacy))
	for _, label := range legacy {
		inLegacy[label] = struct{}{}
	}
	inGo := make(map[string]struct{}, len(goSlots))
	for _, label := range goSlots {
		inGo[label] = struct{}{}
		if _, ok := inLegacy[label]; !ok {
			onlyGo = append(onlyGo, label)
		}
	}
	for label := range inLegacy {
		if _, ok := inGo[label]; !ok {
			onlyLegacy = append(onlyLegacy, label)
		}
	}
	sort.Strings(onlyLegacy)
	sort.Strings(onlyGo)
	return onlyLegacy, onlyGo
}

func printReport(w io.Writer, results []comparison) (breaking, optional int) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case !res.Match():
			status = "DIFF"
		}
		if status != "OK" {
			if res.Case.Critical {
				breaking++
			} else {
				optional++
			}
		}

		fmt.Fprintf(w, "[%s] %s (%s %s)\n", status, res.Case.Name, res.Case.ProviderID, res.Case.Date)
		fmt.Fprintf(w, "  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Fprintf(w, "  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		if len(res.OnlyLegacy) > 0 {
			fmt.Fprintf(w, "  Only legacy: %s\n", strings.Join(res.OnlyLegacy, ", "))
		}
		if len(res.OnlyGo) > 0 {
			fmt.Fprintf(w, "  Only go: %s\n", strings.Join(res.OnlyGo, ", "))
		}
	}
	return breaking, optional
}
