package dto

type QRCodeResponse struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	URL          string `json:"url"`
	Size         int    `json:"size"`
	DataURL      string `json:"dataUrl"`
	GeneratedBy  string `json:"generatedBy"`
	GeneratedAt  string `json:"generatedAt"`
	LastAccessed string `json:"lastAccessed"`
	AccessCount  int    `json:"accessCount"`
	FromCache    bool   `json:"fromCache"`
}

type QRBulkResponse struct {
	Generated int              `json:"generated"`
	Existing  int              `json:"existing"`
	Codes     []QRCodeResponse `json:"codes"`
}

type QRClearResponse struct {
	Deleted int64 `json:"deleted"`
}
