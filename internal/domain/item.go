// Package domain holds the core types shared across services.
package domain

// ItemTypeContact is the item type for normalized CRM contacts.
const ItemTypeContact = "Contact"

// IntegrationItem is the normalized representation of one CRM record.
// Optional fields are omitted from JSON entirely when the upstream property
// is missing; the parent and url fields are always present and null because
// contacts have no hierarchy in HubSpot.
type IntegrationItem struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`

	ParentID         *string `json:"parent_id"`
	ParentPathOrName *string `json:"parent_path_or_name"`
	URL              *string `json:"url"`
}
