// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package catalog

// Wire types for the upstream discovery API. The provider wraps payloads
// in a HAL-style "_embedded" envelope and reports paging separately.

type eventsEnvelope struct {
	Embedded *struct {
		Events []wireEvent `json:"events"`
	} `json:"_embedded"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

type wireImage struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

type wireEvent struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	URL    string      `json:"url"`
	Images []wireImage `json:"images"`
	Dates struct {
		Start struct {
			DateTime  string `json:"dateTime"`
			LocalDate string `json:"localDate"`
		} `json:"start"`
	} `json:"dates"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
	} `json:"classifications"`
	Embedded *struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
		} `json:"venues"`
	} `json:"_embedded"`
}

type attractionsEnvelope struct {
	Embedded *struct {
		Attractions []wireAttraction `json:"attractions"`
	} `json:"_embedded"`
}

type wireAttraction struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Images []wireImage `json:"images"`
}
