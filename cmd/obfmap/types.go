package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIMatch is one resolved declaration.
type CLIMatch struct {
	Kind       string   `json:"kind"`
	Original   string   `json:"original"`
	Renamed    string   `json:"renamed,omitempty"`
	Module     string   `json:"module,omitempty"`
	ReturnType string   `json:"return_type,omitempty"`
	Params     []string `json:"params,omitempty"`
}

// CLISearch is the outcome of one query.
type CLISearch struct {
	Query    string     `json:"query"`
	Kind     string     `json:"kind,omitempty"`
	Resolved string     `json:"resolved"`
	Matches  []CLIMatch `json:"matches"`
	Error    string     `json:"error,omitempty"`
}

// CLIStats is a JSON-friendly load summary.
type CLIStats struct {
	File              string           `json:"file"`
	LoadedAt          string           `json:"loaded_at"`
	Classes           int              `json:"classes"`
	Methods           int              `json:"methods"`
	Subclasses        int              `json:"subclasses"`
	Skipped           int              `json:"skipped"`
	HasSystemEntities bool             `json:"has_system_entities"`
	Modules           []string         `json:"modules"`
	Namespaces        []string         `json:"namespaces"`
	RenamedNamespaces []string         `json:"renamed_namespaces"`
	TimingsMS         map[string]int64 `json:"timings_ms"`
	Diagnostics       []CLIDiagnostic  `json:"diagnostics,omitempty"`
}

// CLIDiagnostic is a non-fatal load anomaly.
type CLIDiagnostic struct {
	Kind    string `json:"kind"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// CLIClass is one node of the class tree.
type CLIClass struct {
	Kind     string     `json:"kind"`
	Original string     `json:"original"`
	Renamed  string     `json:"renamed,omitempty"`
	Skipped  bool       `json:"skipped,omitempty"`
	Children []CLIClass `json:"children,omitempty"`
}

// CLIExport reports an export run.
type CLIExport struct {
	Database   string `json:"database"`
	Document   string `json:"document"`
	DocumentID int64  `json:"document_id"`
	Unchanged  bool   `json:"unchanged"`
	Symbols    int    `json:"symbols"`
}

// CLIStoredSymbol is a symbol row read back from an exported database.
type CLIStoredSymbol struct {
	ID            int64    `json:"id"`
	Document      string   `json:"document,omitempty"`
	ParentID      *int64   `json:"parent_id,omitempty"`
	Kind          string   `json:"kind"`
	Original      string   `json:"original"`
	Renamed       string   `json:"renamed,omitempty"`
	Module        string   `json:"module,omitempty"`
	ReturnType    string   `json:"return_type,omitempty"`
	Params        []string `json:"params,omitempty"`
	SignatureHash string   `json:"signature_hash,omitempty"`
}
