package model

import "time"

// Document is the single PDF held by the upload directory.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"-"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PageText is the extracted text of one page, numbered from 1.
type PageText struct {
	Page int
	Text string
}

type Chunk struct {
	ID    string `json:"id"`
	Page  int    `json:"page"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ScoredChunk is a search hit; lower Distance is closer.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type UploadResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type State string

const (
	StateNoDocument State = "NO_DOCUMENT"
	StateReady      State = "READY"
)

type Status struct {
	State      State      `json:"state"`
	Document   string     `json:"document,omitempty"`
	Pages      int        `json:"pages,omitempty"`
	Chunks     int        `json:"chunks,omitempty"`
	Backend    string     `json:"backend"`
	ReadySince *time.Time `json:"ready_since,omitempty"`
}
