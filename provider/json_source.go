package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/cloud66-oss/ipgeo/utils"
)

var sourceJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonMapper func(body map[string]any) *utils.GeoRecord

// jsonSource queries a public JSON endpoint. urlTemplate may contain the
// {ip} and {lang} placeholders.
type jsonSource struct {
	name        string
	urlTemplate string
	mapper      jsonMapper
	client      *http.Client
}

func (s *jsonSource) Name() string {
	return s.name
}

func (s *jsonSource) URL(address, lang string) string {
	return strings.NewReplacer(
		"{ip}", address,
		"{lang}", url.QueryEscape(lang),
	).Replace(s.urlTemplate)
}

func (s *jsonSource) Query(ctx context.Context, address string, lang string) (*utils.GeoRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(address, lang), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ipgeo/"+utils.Version)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot send a request: %w", err)
	}

	defer func() {
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body := map[string]any{}
	decoder := sourceJSON.NewDecoder(resp.Body)
	decoder.UseNumber()

	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("cannot parse a response: %w", err)
	}

	return s.mapper(body), nil
}

// str renders a decoded JSON value as a string. Numbers keep the exact
// representation they had on the wire.
func str(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case json.Number:
		return vv.String()
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		if vv {
			return "true"
		}
		return ""
	case fmt.Stringer:
		return vv.String()
	default:
		return ""
	}
}

// field returns the first non-empty value of keys in body.
func field(body map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := str(body[k]); v != "" {
			return v
		}
	}

	return ""
}

// object returns the nested object at key, or an empty one.
func object(body map[string]any, key string) map[string]any {
	if v, ok := body[key].(map[string]any); ok {
		return v
	}

	return map[string]any{}
}

// ASNumber normalizes an AS number that may arrive as "AS12345", 12345 or
// "AS12345 Some Org". After the leading AS marker is stripped the first word
// must be all digits; handles like "AMAZON-02" yield "".
func ASNumber(v any) string {
	s := strings.TrimSpace(str(v))
	if len(s) >= 2 && strings.EqualFold(s[:2], "AS") {
		s = s[2:]
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	number := strings.TrimRight(fields[0], ",;:")
	if _, err := strconv.ParseUint(number, 10, 32); err != nil {
		return ""
	}

	return number
}

// firstASNumber returns the first of values that normalizes to a non-empty
// AS number.
func firstASNumber(values ...any) string {
	for _, v := range values {
		if n := ASNumber(v); n != "" {
			return n
		}
	}

	return ""
}
