// Package comments turns the flat comment lists the remote API serves into
// the nested reply trees the UI renders, and owns the comment workflow
// (create, reply, edit, moderate) around them.
package comments

import "inkwell/internal/models"

// BuildTree folds a flat comment list into a forest of root comments with
// nested Replies. The input is never mutated: every node in the result is a
// copy. Ordering follows the input list, both for roots and for the replies
// under each parent.
//
// Comments whose parent is absent from the list are dropped. The server
// prunes whole subtrees on delete, so an orphan here means a stale or
// partial fetch and rendering it detached would be worse than hiding it.
func BuildTree(flat []models.Comment) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(flat))
	for i := range flat {
		node := flat[i]
		node.Replies = []*models.Comment{}
		byID[node.ID] = &node
	}

	roots := make([]*models.Comment, 0, len(flat))
	for i := range flat {
		node := byID[flat[i].ID]
		if node.ParentCommentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*node.ParentCommentID]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}

// CountNodes reports how many comments a forest contains, including every
// nested reply.
func CountNodes(roots []*models.Comment) int {
	total := 0
	for _, root := range roots {
		total += 1 + CountNodes(root.Replies)
	}
	return total
}
