package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Impact Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	groupingParam := map[string]interface{}{
		"name":        "grouping",
		"in":          "query",
		"description": "Group-key kind: all, diet_group, gender, age_group, diet_gender, diet_age",
		"required":    false,
		"schema":      map[string]string{"type": "string"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Impact Platform API",
			"description": "Diet survey environmental-impact aggregation platform: grouped indicator means, category labels, and normalized chart data",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Impact Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/impact/summaries": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get impact summaries",
					"description": "Retrieve aggregated indicator means with filtering and pagination",
					"parameters": []map[string]interface{}{
						groupingParam,
						{
							"name":        "diet_group",
							"in":          "query",
							"description": "Filter by canonical diet group (e.g., vegan, vegetarian, high_meat)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "gender",
							"in":          "query",
							"description": "Filter by gender label",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "age_group",
							"in":          "query",
							"description": "Filter by age bracket (e.g., 20-29)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100, max: 1000)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Paginated summary records",
						},
						"400": map[string]interface{}{
							"description": "Invalid filter parameter",
						},
					},
				},
			},
			"/api/impact/labels": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get category labels",
					"description": "Distinct diet-group, gender, and age-group labels in first-seen output order, for populating selection UIs",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Label lists per dimension",
						},
					},
				},
			},
			"/api/impact/chart": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get normalized chart data",
					"description": "Per-indicator series normalized against the grouping's maxima and scaled by the configured weights (default grouping: diet_age)",
					"parameters":  []map[string]interface{}{groupingParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Render-ready stacked chart payload",
						},
						"400": map[string]interface{}{
							"description": "Invalid grouping",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Service healthy",
						},
						"503": map[string]interface{}{
							"description": "Service degraded",
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
