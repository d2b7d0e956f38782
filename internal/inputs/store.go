// Package inputs persists the user's qualitative scoring inputs in a JSON file.
package inputs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"StockCheck/internal/model"
)

// DefaultFile is used when no path is configured.
const DefaultFile = "user_inputs.json"

// File keys.
const (
	KeyMarketPulse     = "market_pulse"
	KeyATRPercentile   = "atr_percentile"
	KeyAccumulation    = "accumulation_distribution"
	KeyInsiderActivity = "insider_activity"
	KeyTopRated        = "top_rated_group"
	KeyNewDevelopment  = "new_development"
	KeyAlphaVantageKey = "alpha_vantage_key"
)

// Keys lists the settable keys in display order.
var Keys = []string{
	KeyMarketPulse, KeyATRPercentile, KeyAccumulation, KeyInsiderActivity,
	KeyTopRated, KeyNewDevelopment, KeyAlphaVantageKey,
}

// Reader is the read-only view used during analysis.
type Reader interface {
	Load() (model.QualitativeInputs, error)
}

// FileStore reads and writes inputs in a JSON object file. Keys it does not
// know are preserved on write.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) readRaw() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	raw := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode inputs %s: %w", s.path, err)
	}
	return raw, nil
}

// Load returns the stored inputs with defaults for anything unset.
// A missing file yields the defaults.
func (s *FileStore) Load() (model.QualitativeInputs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := model.DefaultInputs()
	raw, err := s.readRaw()
	if err != nil {
		return in, err
	}
	fields := []struct {
		key string
		dst any
	}{
		{KeyMarketPulse, &in.MarketPulse},
		{KeyATRPercentile, &in.ATRPercentile},
		{KeyAccumulation, &in.AccumulationDistribution},
		{KeyInsiderActivity, &in.InsiderActivity},
		{KeyTopRated, &in.TopRatedGroup},
		{KeyNewDevelopment, &in.NewDevelopment},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return in, fmt.Errorf("decode %s: %w", f.key, err)
		}
	}
	return in, nil
}

// APIKey returns the stored Alpha Vantage key, if any.
func (s *FileStore) APIKey() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.readRaw()
	if err != nil {
		return "", err
	}
	var key string
	if v, ok := raw[KeyAlphaVantageKey]; ok {
		if err := json.Unmarshal(v, &key); err != nil {
			return "", fmt.Errorf("decode %s: %w", KeyAlphaVantageKey, err)
		}
	}
	return key, nil
}

// Set validates value for key and writes it to the file.
func (s *FileStore) Set(key, value string) error {
	v, err := parseValue(key, value)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	raw[key] = encoded
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

func parseValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case KeyMarketPulse:
		p, ok := matchPulse(value)
		if !ok {
			return nil, fmt.Errorf("%s must be one of %s", key, pulseChoices())
		}
		return p, nil
	case KeyATRPercentile:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 100 {
			return nil, fmt.Errorf("%s must be an integer between 0 and 100", key)
		}
		return n, nil
	case KeyAccumulation, KeyInsiderActivity:
		if value != "0" && value != "1" {
			return nil, fmt.Errorf("%s must be 0 or 1", key)
		}
		return strconv.Atoi(value)
	case KeyTopRated, KeyNewDevelopment:
		switch strings.ToLower(value) {
		case "yes", "true", "1":
			return true, nil
		case "no", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be yes or no", key)
	case KeyAlphaVantageKey:
		return value, nil
	default:
		known := append([]string(nil), Keys...)
		sort.Strings(known)
		return nil, fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(known, ", "))
	}
}

// matchPulse accepts the full label or its leading color word, case-insensitively.
func matchPulse(value string) (model.MarketPulse, bool) {
	v := strings.ToLower(value)
	for _, p := range model.MarketPulses {
		label := strings.ToLower(string(p))
		if v == label {
			return p, true
		}
		if head, _, ok := strings.Cut(label, " - "); ok && v == head {
			return p, true
		}
	}
	return "", false
}

func pulseChoices() string {
	labels := make([]string, len(model.MarketPulses))
	for i, p := range model.MarketPulses {
		labels[i] = strconv.Quote(string(p))
	}
	return strings.Join(labels, ", ")
}
