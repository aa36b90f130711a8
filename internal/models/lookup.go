package models

import "strconv"

type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Alias string `json:"alias"`
}

type LeadList struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

type Page struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Alias       string `json:"alias"`
	IsPublished bool   `json:"is_published"`
}

type Asset struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Alias string `json:"alias"`
}

func int64String(v int64) string {
	return strconv.FormatInt(v, 10)
}
