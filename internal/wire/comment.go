package wire

import "github.com/doree-nobuu/adventures/internal/types"

// CommentDoc is an embedded comment sub-document.
type CommentDoc struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt Timestamp `json:"createdAt"`
}

func encodeComments(in []types.Comment) []CommentDoc {
	if len(in) == 0 {
		return nil
	}
	out := make([]CommentDoc, len(in))
	for i, c := range in {
		out[i] = CommentDoc{
			ID:        c.ID,
			Text:      c.Text,
			Author:    string(c.Author),
			CreatedAt: FromTime(c.CreatedAt),
		}
	}
	return out
}

func decodeComments(in []CommentDoc) []types.Comment {
	out := make([]types.Comment, len(in))
	for i, c := range in {
		out[i] = types.Comment{
			ID:        c.ID,
			Text:      c.Text,
			Author:    types.Partner(strOr(&c.Author, string(types.Both))),
			CreatedAt: c.CreatedAt.Time(),
		}
	}
	return out
}
