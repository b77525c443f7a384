package ncmsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source is one upstream that can produce the full NCM table. Sources are
// consulted in order; the first one returning a non-empty list wins.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// primarySource fetches the Portal Único Siscomex bulk JSON, which wraps
// entries in a "Nomenclaturas" envelope with capitalized keys.
type primarySource struct {
	url  string
	http *http.Client
}

func newPrimarySource() *primarySource {
	url := strings.TrimSpace(os.Getenv("NCM_PRIMARY_URL"))
	if url == "" {
		url = "https://portalunico.siscomex.gov.br/classif/api/publico/nomenclatura/download/json"
	}
	return &primarySource{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *primarySource) Name() string { return "siscomex" }

type siscomexResponse struct {
	Nomenclaturas []struct {
		Codigo    string `json:"Codigo"`
		Descricao string `json:"Descricao"`
		TipoAto   string `json:"Tipo_Ato"`
	} `json:"Nomenclaturas"`
}

func (s *primarySource) Fetch(ctx context.Context) ([]RawRecord, error) {
	body, err := getJSON(ctx, s.http, s.url)
	if err != nil {
		return nil, err
	}

	var parsed siscomexResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("siscomex payload: %w", err)
	}

	records := make([]RawRecord, 0, len(parsed.Nomenclaturas))
	for _, n := range parsed.Nomenclaturas {
		records = append(records, RawRecord{
			Codigo:    n.Codigo,
			Descricao: n.Descricao,
			Tipo:      n.TipoAto,
		})
	}
	return records, nil
}

// fallbackSource fetches the community mirror, a flat JSON array with
// lowercase keys.
type fallbackSource struct {
	url  string
	http *http.Client
}

func newFallbackSource() *fallbackSource {
	url := strings.TrimSpace(os.Getenv("NCM_FALLBACK_URL"))
	if url == "" {
		url = "https://brasilapi.com.br/api/ncm/v1"
	}
	return &fallbackSource{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *fallbackSource) Name() string { return "fallback" }

type fallbackEntry struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
	Tipo      string `json:"tipo"`
}

func (s *fallbackSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	body, err := getJSON(ctx, s.http, s.url)
	if err != nil {
		return nil, err
	}

	var parsed []fallbackEntry
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("fallback payload: %w", err)
	}

	records := make([]RawRecord, 0, len(parsed))
	for _, e := range parsed {
		records = append(records, RawRecord{
			Codigo:    e.Codigo,
			Descricao: e.Descricao,
			Tipo:      e.Tipo,
		})
	}
	return records, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream error %d: %s", resp.StatusCode, strings.TrimSpace(firstBytes(body, 200)))
	}
	return body, nil
}

func firstBytes(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
