package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"ecomflow/internal/analytics"
	"ecomflow/internal/model"
)

// parseStocks reads "1=100,4=200".
func parseStocks(s string) (analytics.Stocks, error) {
	out := analytics.Stocks{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, qty, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: stock entry %q is not product=quantity", model.ErrMisconfiguredInput, pair)
		}
		p, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: stock product %q: %v", model.ErrMisconfiguredInput, id, err)
		}
		q, err := strconv.ParseInt(strings.TrimSpace(qty), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: stock quantity %q: %v", model.ErrMisconfiguredInput, qty, err)
		}
		out[p] = q
	}
	return out, nil
}

// loadStocks reads a YAML mapping of product_id to initial stock.
func loadStocks(path string) (analytics.Stocks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read stock file: %v", model.ErrMisconfiguredInput, err)
	}
	out := analytics.Stocks{}
	if err := yaml.UnmarshalStrict(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse stock file: %v", model.ErrMisconfiguredInput, err)
	}
	return out, nil
}

// stocksFrom merges the file then the inline flag; inline entries win.
func stocksFrom(inline, file string) (analytics.Stocks, error) {
	out := analytics.Stocks{}
	if file != "" {
		s, err := loadStocks(file)
		if err != nil {
			return nil, err
		}
		for k, v := range s {
			out[k] = v
		}
	}
	s, err := parseStocks(inline)
	if err != nil {
		return nil, err
	}
	for k, v := range s {
		out[k] = v
	}
	return out, out.Validate()
}
