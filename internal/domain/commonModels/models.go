package commonModels

import "time"

type Document struct {
	Id                  string    `json:"source_doc_id"`
	Name                string    `json:"doc_name"`
	Title               string    `json:"title"`
	Keywords            []string  `json:"keywords,omitempty"`
	Category            string    `json:"category,omitempty"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	ContentType         DocType   `json:"contentType"`
}

type DocChunk struct {
	Doc            Document
	ChunkId        string `json:"chunk_id"`
	Chunk          string `json:"content"`
	ChunkPageOrder int    `json:"chunk_order"`
	EmbeddingModel string `json:"embeddingModel"`
}

// Candidate is one vector-search hit. The vector rides along so the
// retrieval layer can re-rank candidates without another store round trip.
type Candidate struct {
	ChunkId string
	Content string
	Title   string
	Source  string
	Score   float32
	Vector  []float32
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var HTML DocType = "HTML"
var ERR DocType = "ERROR"
