package wire

import "github.com/doree-nobuu/adventures/internal/types"

// SurpriseDoc is the remote schema of a surprise.
type SurpriseDoc struct {
	ID         int64        `json:"id"`
	Photo      string       `json:"photo"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Message    *string      `json:"message,omitempty"`
	Revealed   bool         `json:"revealed"`
	RevealedAt *Timestamp   `json:"revealedAt,omitempty"`
	Comments   []CommentDoc `json:"comments,omitempty"`
	CreatedAt  *Timestamp   `json:"createdAt,omitempty"`
	UpdatedAt  *Timestamp   `json:"updatedAt,omitempty"`
}

// SurpriseToDoc maps a surprise onto its wire document.
func SurpriseToDoc(s *types.Surprise) SurpriseDoc {
	created := FromTime(s.CreatedAt)
	updated := FromTime(s.UpdatedAt)
	return SurpriseDoc{
		ID:         s.ID,
		Photo:      s.Photo,
		From:       string(s.From),
		To:         string(s.To),
		Message:    optString(s.Message),
		Revealed:   s.Revealed,
		RevealedAt: timestampPtr(s.RevealedAt),
		Comments:   encodeComments(s.Comments),
		CreatedAt:  &created,
		UpdatedAt:  &updated,
	}
}

// Record maps the document back onto a surprise.
func (d SurpriseDoc) Record() *types.Surprise {
	s := &types.Surprise{
		ID:         d.ID,
		Photo:      d.Photo,
		From:       types.Partner(strOr(&d.From, string(types.Both))),
		To:         types.Partner(strOr(&d.To, string(types.Both))),
		Message:    strOr(d.Message, ""),
		Revealed:   d.Revealed,
		RevealedAt: timePtr(d.RevealedAt),
		Comments:   decodeComments(d.Comments),
		CreatedAt:  timeOrZero(d.CreatedAt),
		UpdatedAt:  timeOrZero(d.UpdatedAt),
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	return s
}

// EncodeSurprise converts a surprise to a Document.
func EncodeSurprise(s *types.Surprise) (Document, error) {
	return toDocument(SurpriseToDoc(s))
}

// DecodeSurprise converts a Document to a surprise.
func DecodeSurprise(d Document) (*types.Surprise, error) {
	var doc SurpriseDoc
	if err := fromDocument(d, &doc); err != nil {
		return nil, err
	}
	return doc.Record(), nil
}
