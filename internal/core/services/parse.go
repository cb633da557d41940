package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// ExtractJSON pulls the JSON payload out of a model response.
// It tries, in order: a ```json fenced block, any fenced block, the longest
// valid balanced object or array. If none is found the trimmed response is
// returned.
func ExtractJSON(response string) string {
	if fenced, ok := fencedBlock(response); ok {
		return fenced
	}
	if blocks := jsonBlocks(response); len(blocks) > 0 {
		return longest(blocks)
	}
	return strings.TrimSpace(response)
}

func fencedBlock(response string) (string, bool) {
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end]), true
		}
	}
	if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		// Skip optional language identifier
		if nl := strings.Index(response[start:], "\n"); nl != -1 {
			start += nl + 1
		}
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end]), true
		}
	}
	return "", false
}

// jsonBlocks returns every balanced {...} or [...] in s that is valid JSON,
// in order of appearance. A bracket that opens no valid block, such as the
// "[2]" of a prose count followed by the real answer, does not hide the
// blocks after it. Blocks nested inside a valid block are not reported.
func jsonBlocks(s string) []string {
	var blocks []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		block := balancedAt(s, i)
		if block == "" || !json.Valid([]byte(block)) {
			continue
		}
		blocks = append(blocks, block)
		i += len(block) - 1
	}
	return blocks
}

func longest(blocks []string) string {
	best := blocks[0]
	for _, b := range blocks[1:] {
		if len(b) > len(best) {
			best = b
		}
	}
	return best
}

// balancedAt returns the balanced block opening at s[start], honouring
// string literals so brackets inside strings do not count, or "" when the
// block never closes.
func balancedAt(s string, start int) string {
	open := s[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// DecodeJSON decodes the JSON payload of a model response into v.
// The extracted payload is tried first, then every other JSON block in the
// response, then the raw response, before giving up with domain.ErrNoJSON.
func DecodeJSON(response string, v any) error {
	raw := strings.TrimSpace(response)
	if raw == "" {
		return domain.ErrEmptyResponse
	}

	extracted := ExtractJSON(response)
	err := json.Unmarshal([]byte(extracted), v)
	if err == nil {
		return nil
	}

	tried := map[string]bool{extracted: true}
	for _, candidate := range append(jsonBlocks(response), raw) {
		if tried[candidate] {
			continue
		}
		tried[candidate] = true
		if json.Unmarshal([]byte(candidate), v) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrNoJSON, err)
}

// serviceJSON is one service as the model describes it.
type serviceJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RootPath    string `json:"root_path"`
}

// UnmarshalJSON accepts either an object or a bare name string.
func (s *serviceJSON) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		s.Name = name
		return nil
	}
	type plain serviceJSON
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = serviceJSON(p)
	return nil
}

// serviceList decodes {"services": [...]} or a bare array.
type serviceList struct {
	Services []serviceJSON `json:"services"`
}

// UnmarshalJSON accepts the wrapped object or a bare array.
func (l *serviceList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &l.Services)
	}
	type plain serviceList
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = serviceList(p)
	return nil
}

// dependencyAnswer is the model's answer for one file.
type dependencyAnswer struct {
	Service      string        `json:"service"`
	Dependencies []serviceJSON `json:"dependencies"`
}

// UnmarshalJSON accepts the wrapped object or a bare dependency array.
func (a *dependencyAnswer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &a.Dependencies)
	}
	type plain dependencyAnswer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = dependencyAnswer(p)
	return nil
}

// descriptionAnswer is the answer to the describe_service prompt.
type descriptionAnswer struct {
	Description string `json:"description"`
}

// ParseServices decodes an infer_services response.
func ParseServices(response string) ([]domain.Service, error) {
	var list serviceList
	if err := DecodeJSON(response, &list); err != nil {
		return nil, err
	}

	result := make([]domain.Service, 0, len(list.Services))
	for _, sj := range list.Services {
		s := domain.NewService(sj.Name, sj.Description, sj.RootPath)
		if s.ID == "" {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

// ParseDependencies decodes an infer_dependencies response.
// The owner is returned by name only; resolving it against known services
// is the caller's job.
func ParseDependencies(response string) (owner string, deps []domain.Service, err error) {
	var answer dependencyAnswer
	if err := DecodeJSON(response, &answer); err != nil {
		return "", nil, err
	}

	for _, dj := range answer.Dependencies {
		s := domain.NewService(dj.Name, dj.Description, "")
		if s.ID == "" {
			continue
		}
		deps = append(deps, s)
	}
	return strings.TrimSpace(answer.Service), deps, nil
}

// ParseDescription decodes a describe_service response. A response that is
// not JSON is used verbatim as the description.
func ParseDescription(response string) string {
	var answer descriptionAnswer
	if err := DecodeJSON(response, &answer); err == nil && answer.Description != "" {
		return strings.TrimSpace(answer.Description)
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(response), `"`))
}
