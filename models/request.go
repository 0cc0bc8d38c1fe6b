package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=255"`
	ParentID *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

// UpdateNodeRequest represents the request body for renaming a node
type UpdateNodeRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// MoveNodeRequest represents the request body for reparenting a node.
// A null or missing parentId moves the node to the root set.
type MoveNodeRequest struct {
	ParentID *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

// Validate validates the create node request
func (r *CreateNodeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the update node request
func (r *UpdateNodeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the move node request
func (r *MoveNodeRequest) Validate() error {
	return validate.Struct(r)
}
