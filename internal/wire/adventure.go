package wire

import "github.com/doree-nobuu/adventures/internal/types"

// AdventureDoc is the remote schema of an adventure.
type AdventureDoc struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    *string      `json:"description,omitempty"`
	Category       string       `json:"category"`
	CustomCategory *string      `json:"customCategory,omitempty"`
	AssignedTo     string       `json:"assignedTo"`
	CreatedBy      string       `json:"createdBy"`
	Status         string       `json:"status"`
	TargetDate     *Timestamp   `json:"targetDate,omitempty"`
	CompletedDate  *Timestamp   `json:"completedDate,omitempty"`
	Photos         []string     `json:"photos,omitempty"`
	Rating         *int         `json:"rating,omitempty"`
	Review         *string      `json:"review,omitempty"`
	Location       *string      `json:"location,omitempty"`
	EstimatedCost  *float64     `json:"estimatedCost,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
	Comments       []CommentDoc `json:"comments,omitempty"`
	IsSurprise     bool         `json:"isSurprise,omitempty"`
	Revealed       *bool        `json:"revealed,omitempty"`
	CreatedAt      *Timestamp   `json:"createdAt,omitempty"`
	UpdatedAt      *Timestamp   `json:"updatedAt,omitempty"`
}

// AdventureToDoc maps an adventure onto its wire document.
func AdventureToDoc(a *types.Adventure) AdventureDoc {
	revealed := a.Revealed
	created := FromTime(a.CreatedAt)
	updated := FromTime(a.UpdatedAt)
	return AdventureDoc{
		ID:             a.ID,
		Title:          a.Title,
		Description:    optString(a.Description),
		Category:       string(a.Category),
		CustomCategory: optString(a.CustomCategory),
		AssignedTo:     string(a.AssignedTo),
		CreatedBy:      string(a.CreatedBy),
		Status:         string(a.Status),
		TargetDate:     timestampPtr(a.TargetDate),
		CompletedDate:  timestampPtr(a.CompletedDate),
		Photos:         append([]string(nil), a.Photos...),
		Rating:         cloneInt(a.Rating),
		Review:         optString(a.Review),
		Location:       optString(a.Location),
		EstimatedCost:  cloneFloat(a.EstimatedCost),
		Notes:          optString(a.Notes),
		Comments:       encodeComments(a.Comments),
		IsSurprise:     a.IsSurprise,
		Revealed:       &revealed,
		CreatedAt:      &created,
		UpdatedAt:      &updated,
	}
}

// Record maps the document back onto an adventure, filling defaults for
// absent fields.
func (d AdventureDoc) Record() *types.Adventure {
	a := &types.Adventure{
		ID:             d.ID,
		Title:          d.Title,
		Description:    strOr(d.Description, ""),
		Category:       types.Category(strOr(&d.Category, string(types.CategoryActivity))),
		CustomCategory: strOr(d.CustomCategory, ""),
		AssignedTo:     types.Partner(strOr(&d.AssignedTo, string(types.Both))),
		CreatedBy:      types.Partner(strOr(&d.CreatedBy, string(types.Both))),
		Status:         types.Status(strOr(&d.Status, string(types.StatusWishlist))),
		TargetDate:     timePtr(d.TargetDate),
		CompletedDate:  timePtr(d.CompletedDate),
		Photos:         append([]string{}, d.Photos...),
		Rating:         cloneInt(d.Rating),
		Review:         strOr(d.Review, ""),
		Location:       strOr(d.Location, ""),
		EstimatedCost:  cloneFloat(d.EstimatedCost),
		Notes:          strOr(d.Notes, ""),
		Comments:       decodeComments(d.Comments),
		IsSurprise:     d.IsSurprise,
		CreatedAt:      timeOrZero(d.CreatedAt),
		UpdatedAt:      timeOrZero(d.UpdatedAt),
	}
	if d.Revealed != nil {
		a.Revealed = *d.Revealed
	} else {
		a.Revealed = !d.IsSurprise
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	return a
}

// EncodeAdventure converts an adventure to a Document.
func EncodeAdventure(a *types.Adventure) (Document, error) {
	return toDocument(AdventureToDoc(a))
}

// DecodeAdventure converts a Document to an adventure.
func DecodeAdventure(d Document) (*types.Adventure, error) {
	var doc AdventureDoc
	if err := fromDocument(d, &doc); err != nil {
		return nil, err
	}
	return doc.Record(), nil
}
