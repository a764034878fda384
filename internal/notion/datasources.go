package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"chartsync/internal/core"
)

type (
	selectOption struct {
		Name string `json:"name"`
	}

	schemaProperty struct {
		Type   string `json:"type"`
		Select *struct {
			Options []selectOption `json:"options"`
		} `json:"select,omitempty"`
	}

	dataSource struct {
		ID         string                    `json:"id"`
		Properties map[string]schemaProperty `json:"properties"`
	}

	queryRequest struct {
		Filter      *core.Filter `json:"filter,omitempty"`
		StartCursor string       `json:"start_cursor,omitempty"`
		PageSize    int          `json:"page_size"`
	}

	pageObject struct {
		ID         string                   `json:"id"`
		Properties map[string]propertyValue `json:"properties"`
	}

	propertyValue struct {
		Type    string        `json:"type"`
		Number  *float64      `json:"number"`
		Formula *formulaValue `json:"formula"`
		Select  *selectOption `json:"select"`
		Date    *dateValue    `json:"date"`
	}

	formulaValue struct {
		Type   string   `json:"type"`
		Number *float64 `json:"number"`
	}

	dateValue struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	queryResponse struct {
		Results    []pageObject `json:"results"`
		HasMore    bool         `json:"has_more"`
		NextCursor *string      `json:"next_cursor"`
	}
)

// CategoryDomain returns the options of a select property in the order the
// schema declares them.
func (c *Client) CategoryDomain(ctx context.Context, dataSourceID, property string) ([]string, error) {
	var ds dataSource
	if err := c.do(ctx, http.MethodGet, "/v1/data_sources/"+url.PathEscape(dataSourceID), nil, &ds); err != nil {
		return nil, fmt.Errorf("retrieve data source %s: %w", dataSourceID, err)
	}
	p, ok := ds.Properties[property]
	if !ok {
		return nil, &core.SchemaMismatchError{Property: property, Expected: "select", Actual: "missing"}
	}
	if p.Type != string(core.PropertySelect) || p.Select == nil {
		return nil, &core.SchemaMismatchError{Property: property, Expected: "select", Actual: p.Type}
	}
	out := make([]string, len(p.Select.Options))
	for i, o := range p.Select.Options {
		out[i] = o.Name
	}
	return out, nil
}

// QueryRecords runs filter against the data source and returns every
// matching page, following pagination.
func (c *Client) QueryRecords(ctx context.Context, dataSourceID string, filter *core.Filter) ([]core.Record, error) {
	if filter.IsZero() {
		filter = nil
	}
	path := "/v1/data_sources/" + url.PathEscape(dataSourceID) + "/query"

	var out []core.Record
	req := queryRequest{Filter: filter, PageSize: pageSize}
	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
			return nil, fmt.Errorf("query data source %s: %w", dataSourceID, err)
		}
		for _, page := range resp.Results {
			out = append(out, page.toRecord())
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			return out, nil
		}
		req.StartCursor = *resp.NextCursor
	}
}

func (p pageObject) toRecord() core.Record {
	r := core.Record{ID: p.ID, Properties: make(map[string]core.Property, len(p.Properties))}
	for name, v := range p.Properties {
		prop := core.Property{Type: core.PropertyType(v.Type), Number: v.Number}
		if v.Formula != nil {
			prop.Formula = &core.Formula{Type: v.Formula.Type, Number: v.Formula.Number}
		}
		if v.Select != nil {
			option := v.Select.Name
			prop.Select = &option
		}
		if v.Date != nil {
			prop.Date = &core.DateValue{Start: v.Date.Start, End: v.Date.End}
		}
		r.Properties[name] = prop
	}
	return r
}
