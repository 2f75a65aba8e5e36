package model

type ProcessedResult struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	CreatedAt    string        `json:"createdAt"`
	ExpiresAt    string        `json:"expiresAt"`
	DownloadURL  string        `json:"downloadUrl"`
	FullTable    *TablePreview `json:"fullTable"`
	CompactTable *TablePreview `json:"compactTable"`
}

type TablePreview struct {
	Name      string      `json:"name"`
	Columns   []string    `json:"columns"`
	TotalRows int         `json:"totalRows"`
	Rows      [][]*string `json:"rows"`
}
