package releasetracker

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"gopkg.in/yaml.v3"
)

type metadata struct {
	commit       string
	classIndices []int
}

// parseMetadata extracts the server-core commit and the supported class-file indices from a
// per-version metadata document. Structured documents are queried by path; anything that
// does not decode into an object is scanned line by line for the two fields.
func parseMetadata(doc, commitField, toolchainField string) (*metadata, error) {
	var tree interface{}
	if err := yaml.Unmarshal([]byte(doc), &tree); err == nil {
		if obj, ok := tree.(map[string]interface{}); ok {
			return queryMetadata(obj, commitField, toolchainField)
		}
	}
	return scanMetadata(doc, commitField, toolchainField)
}

func queryMetadata(obj map[string]interface{}, commitField, toolchainField string) (*metadata, error) {
	m := &metadata{}

	raw, err := jsonpath.Get(fmt.Sprintf("$.refs[%q]", commitField), obj)
	if err != nil {
		raw, err = jsonpath.Get(fmt.Sprintf("$[%q]", commitField), obj)
	}
	if err != nil {
		return nil, fmt.Errorf("no %s ref: %w", commitField, err)
	}
	commit, ok := raw.(string)
	if !ok || strings.TrimSpace(commit) == "" {
		return nil, fmt.Errorf("unexpected %s ref: %v", commitField, raw)
	}
	m.commit = strings.TrimSpace(commit)

	list, err := jsonpath.Get(fmt.Sprintf("$[%q]", toolchainField), obj)
	if err != nil {
		// Old releases do not list class-file versions.
		return m, nil
	}
	items, ok := list.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected %s: %v", toolchainField, list)
	}
	for _, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", toolchainField, err)
		}
		m.classIndices = append(m.classIndices, n)
	}

	return m, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("unexpected class-file index %v (%T)", v, v)
}

func scanMetadata(doc, commitField, toolchainField string) (*metadata, error) {
	m := &metadata{}

	commitKey := fmt.Sprintf("%q:", commitField)
	toolchainKey := fmt.Sprintf("%q:", toolchainField)

	s := bufio.NewScanner(strings.NewReader(doc))
	for s.Scan() {
		line := s.Text()
		switch {
		case strings.Contains(line, commitField):
			v := strings.Replace(line, commitKey, "", 1)
			v = strings.NewReplacer(`"`, "", ",", "").Replace(v)
			m.commit = strings.TrimSpace(v)
		case strings.Contains(line, toolchainField):
			v := strings.Replace(line, toolchainKey, "", 1)
			v = strings.NewReplacer("[", "", "]", "").Replace(v)
			m.classIndices = m.classIndices[:0]
			for _, f := range strings.Split(v, ",") {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				n, err := strconv.Atoi(f)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", toolchainField, err)
				}
				m.classIndices = append(m.classIndices, n)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	if m.commit == "" {
		return nil, fmt.Errorf("no %s ref", commitField)
	}

	return m, nil
}

var markerDelims = regexp.MustCompile(`[<>]`)

// scanMarker returns the value of the first line containing marker, taken as the third
// token when splitting on '<' and '>', e.g. "<minecraft_version>1_19_R1</minecraft_version>".
func scanMarker(doc, marker string) (string, bool) {
	s := bufio.NewScanner(strings.NewReader(doc))
	for s.Scan() {
		line := s.Text()
		if !strings.Contains(line, marker) {
			continue
		}
		tokens := markerDelims.Split(line, -1)
		if len(tokens) > 2 && strings.TrimSpace(tokens[2]) != "" {
			return strings.TrimSpace(tokens[2]), true
		}
	}
	return "", false
}
