package catalog

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/audit"
	"catalog-service/internal/models"
)

// Resolver turns a breadcrumb into the chain of tree nodes for one
// tenant, creating missing nodes along the way. Resolution is
// idempotent: the store's uniqueness constraint on (tenant, level,
// name) is the final arbiter under concurrent imports, and a creation
// conflict is treated as "already exists".
type Resolver struct {
	store  Store
	audit  audit.Writer
	logger *logrus.Entry
}

func NewResolver(store Store, auditor audit.Writer) *Resolver {
	return &Resolver{
		store:  store,
		audit:  auditor,
		logger: logrus.WithField("component", "category-resolver"),
	}
}

// Resolve walks the breadcrumb root to leaf, returning the ids of the
// full chain and the level of the deepest node. Blank segments are
// skipped; segments beyond the fixed depth are ignored. cache may be
// nil outside batch runs.
func (r *Resolver) Resolve(tenantID, userID string, breadcrumb []string, cache *BatchCache) (*models.ResolvedPath, error) {
	path := &models.ResolvedPath{IDs: make([]string, 0, models.MaxCategoryDepth)}
	var parentID *uuid.UUID
	level := 0

	for _, raw := range breadcrumb {
		name := TitleCase(raw)
		if name == "" {
			continue
		}
		if level >= models.MaxCategoryDepth {
			break
		}
		level++

		nodeID, err := r.resolveNode(tenantID, userID, level, name, parentID, cache)
		if err != nil {
			return nil, err
		}

		id := nodeID
		parentID = &id
		path.IDs = append(path.IDs, nodeID.String())
		path.LeafID = nodeID.String()
		path.Level = level
	}

	if len(path.IDs) == 0 {
		return nil, ErrEmptyBreadcrumb
	}
	return path, nil
}

func (r *Resolver) resolveNode(tenantID, userID string, level int, name string, parentID *uuid.UUID, cache *BatchCache) (uuid.UUID, error) {
	if id, ok := cache.Category(level, name); ok {
		return id, nil
	}

	var node *models.CategoryNode
	var err error
	if !cache.Seeded() {
		node, err = r.store.GetCategoryByName(tenantID, level, name)
		if err != nil {
			return uuid.Nil, err
		}
	}

	if node == nil {
		candidate := &models.CategoryNode{
			TenantID: tenantID,
			Level:    level,
			Name:     name,
			ParentID: parentID,
		}
		var created bool
		node, created, err = r.store.CreateCategory(candidate)
		if err != nil {
			return uuid.Nil, err
		}
		if created {
			r.audit.Category(tenantID, userID, node.ID, models.LogActionCreated, models.JSON{
				"name":         node.Name,
				"level":        node.Level,
				"sequenceCode": node.SequenceCode,
				"parentId":     parentIDString(node.ParentID),
			})
			r.logger.WithFields(logrus.Fields{
				"tenant_id":     tenantID,
				"level":         level,
				"name":          name,
				"sequence_code": node.SequenceCode,
			}).Info("Created category node")
		}
	}

	// A node that lost a creation race, or was first seen through a
	// shorter breadcrumb, may still be unlinked. Never re-parent a
	// node that already has one.
	if level > 1 && parentID != nil && node.ParentID == nil {
		if err := r.store.SetCategoryParent(tenantID, node.ID, *parentID); err != nil && err != ErrParentAlreadySet {
			return uuid.Nil, err
		}
	} else if node.ParentID != nil && parentID != nil && *node.ParentID != *parentID {
		r.logger.WithFields(logrus.Fields{
			"tenant_id":   tenantID,
			"category_id": node.ID,
			"kept_parent": *node.ParentID,
		}).Debug("Breadcrumb disagrees with existing parent, keeping first")
	}

	cache.SetCategory(level, name, node.ID)
	return node.ID, nil
}

func parentIDString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}
