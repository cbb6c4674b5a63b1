package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"regexp"
)

// dangerousChars rejects paths that could smuggle shell syntax into the
// editor launch.
var dangerousChars = regexp.MustCompile("[;&|`$(){}!<>]")

type focusWindowRequest struct {
	ProjectDir string `json:"projectDir"`
}

// handleFocusWindow opens a project directory in the configured editor,
// refocusing its window. The spawn itself is best-effort; only validation
// failures are reported to the caller.
func (a *API) handleFocusWindow(w http.ResponseWriter, r *http.Request) {
	var req focusWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	if req.ProjectDir == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"fieldErrors": map[string]string{"projectDir": "projectDir is required"}},
		})
		return
	}
	if dangerousChars.MatchString(req.ProjectDir) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"fieldErrors": map[string]string{"projectDir": "Invalid characters in path"}},
		})
		return
	}

	info, err := os.Stat(req.ProjectDir)
	if err != nil || !info.IsDir() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Directory not found"})
		return
	}

	if err := a.spawn(a.codeCmd, "-r", req.ProjectDir); err != nil {
		slog.Warn("failed to spawn editor", "command", a.codeCmd, "dir", req.ProjectDir, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func defaultSpawn(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
