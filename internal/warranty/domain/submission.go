package domain

// FilePayload is evidence as it travels inside the JSON body.
// Content is always standard base64 of bytes of type MimeType.
type FilePayload struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

// Submission is one warranty registration attempt. It is built fresh for
// every submit and discarded once the relay call resolves.
type Submission struct {
	FullName     string       `json:"fullName"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email"`
	Gender       string       `json:"gender"`
	Birthday     string       `json:"birthday"`
	PurchaseDate string       `json:"purchaseDate"`
	Store        string       `json:"store"`
	Evidence     *FilePayload `json:"evidence"`

	// AgreeToTerms never leaves the client.
	AgreeToTerms bool `json:"-"`
}

// RequiredFields lists the JSON names that must be non-empty before a
// submission may leave the client.
var RequiredFields = []string{"fullName", "phone", "email", "purchaseDate", "evidence"}

// Field names the upstream spreadsheet script relies on.
const (
	FieldProduct  = "product"
	FieldSerial   = "serial"
	FieldFile     = "file"
	FieldEvidence = "evidence"

	// PlaceholderValue fills identification fields the form never collects.
	PlaceholderValue = "N/A"
)
