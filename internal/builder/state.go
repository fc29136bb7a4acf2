package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dexmac221/AgentsTeam/internal/errors"
	"github.com/dexmac221/AgentsTeam/internal/runner"
)

// StateFileName is written inside the project directory so a build can
// be resumed after an interruption.
const StateFileName = ".agentsteam_state.json"

const (
	stdoutTailBytes = 1000
	stderrTailBytes = 2000
)

// StepRecord captures the outcome of one executed build step
type StepRecord struct {
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Success    bool      `json:"success"`
	Files      []string  `json:"files,omitempty"`
	StdoutTail string    `json:"stdout_tail,omitempty"`
	StderrTail string    `json:"stderr_tail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// FailedPatch remembers a change that was applied but did not make the
// project pass, so near-identical proposals can be rejected later.
type FailedPatch struct {
	Path    string `json:"path"`
	Digest  string `json:"digest"`
	Content string `json:"content"`
}

// State is the persistent record of a build session
type State struct {
	SessionID     string        `json:"session_id"`
	Description   string        `json:"description"`
	RunCommand    string        `json:"run_command,omitempty"`
	Steps         []string      `json:"steps"`
	Records       []StepRecord  `json:"records"`
	FailedPatches []FailedPatch `json:"failed_patches,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewState starts a fresh build session
func NewState(description string) *State {
	return &State{
		SessionID:   uuid.NewString(),
		Description: description,
	}
}

// NextStep returns the index of the first step without a successful
// record, which is where a resumed build continues.
func (s *State) NextStep() int {
	done := make(map[int]bool)
	for _, r := range s.Records {
		if r.Success {
			done[r.Index] = true
		}
	}
	for i := range s.Steps {
		if !done[i] {
			return i
		}
	}
	return len(s.Steps)
}

// RecordStep appends a step outcome, tail-truncating captured output
func (s *State) RecordStep(index int, name string, files []string, result runner.Result) {
	s.Records = append(s.Records, StepRecord{
		Index:      index,
		Name:       name,
		Success:    result.Success(),
		Files:      files,
		StdoutTail: runner.Tail(result.Stdout, stdoutTailBytes),
		StderrTail: runner.Tail(result.Stderr, stderrTailBytes),
		Timestamp:  time.Now(),
	})
}

// RememberFailure stores an applied-but-failing change. The digest
// lets identical proposals be rejected without a similarity pass.
func (s *State) RememberFailure(path, content string) {
	digest := sha256.Sum256([]byte(content))
	s.FailedPatches = append(s.FailedPatches, FailedPatch{
		Path:    path,
		Digest:  hex.EncodeToString(digest[:]),
		Content: content,
	})
}

// statePath is where a project's build state lives
func statePath(dir string) string {
	return filepath.Join(dir, StateFileName)
}

// LoadState reads a prior session from the project directory. A missing
// file returns (nil, nil).
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(statePath(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewIOError("read state", statePath(dir), err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.NewIOError("parse state", statePath(dir), err)
	}
	return &state, nil
}

// Save writes the state atomically. Concurrent sessions in the same
// directory resolve to the most recent write.
func (s *State) Save(dir string) error {
	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.NewIOError("encode state", statePath(dir), err)
	}

	tmp := statePath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewIOError("write state", tmp, err)
	}
	if err := os.Rename(tmp, statePath(dir)); err != nil {
		os.Remove(tmp)
		return errors.NewIOError("replace state", statePath(dir), err)
	}
	return nil
}
