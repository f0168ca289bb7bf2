package collection

import (
	"github.com/desertthunder/tcgtrack/internal/models"
)

// Group partitions instances by (card, expansion).
//
// Groups appear in the order their key is first seen and each group's instances keep input order.
// Display fields are taken from the first instance of each group.
func Group(instances []models.Instance) []models.CardGroup {
	groups := make([]models.CardGroup, 0)
	index := make(map[models.GroupKey]int)

	for _, inst := range instances {
		key := inst.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.CardGroup{
				CardID:        inst.CardID,
				CardName:      inst.CardName,
				ExpansionID:   inst.ExpansionID,
				ExpansionName: inst.ExpansionName,
				CardImage:     inst.CardImage,
			})
		}
		groups[i].Instances = append(groups[i].Instances, inst)
	}

	for i := range groups {
		derive(&groups[i])
	}
	return groups
}

// Normalize prepares a pre-grouped server response for display.
//
// Groups are kept in server order and never merged. Each group's instances get the group's
// identity fields, derived totals are recomputed, and groups without instances are dropped.
func Normalize(groups []models.CardGroup) []models.CardGroup {
	out := make([]models.CardGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Instances) == 0 {
			continue
		}
		g = g.Clone()
		for i := range g.Instances {
			g.Instances[i] = fillFromGroup(g.Instances[i], g)
		}
		derive(&g)
		out = append(out, g)
	}
	return out
}

// Flatten lists every instance of groups in group order, with identity and display fields filled from the group.
func Flatten(groups []models.CardGroup) []models.Instance {
	out := make([]models.Instance, 0)
	for _, g := range groups {
		for _, inst := range g.Instances {
			out = append(out, fillFromGroup(inst, g))
		}
	}
	return out
}

// FindInstance returns the instance with id and the key of the group holding it.
func FindInstance(groups []models.CardGroup, id int) (models.Instance, models.GroupKey, bool) {
	for _, g := range groups {
		for _, inst := range g.Instances {
			if inst.ID == id {
				return inst, g.Key(), true
			}
		}
	}
	return models.Instance{}, models.GroupKey{}, false
}

// FindGroup returns the group with key.
func FindGroup(groups []models.CardGroup, key models.GroupKey) (models.CardGroup, bool) {
	for _, g := range groups {
		if g.Key() == key {
			return g, true
		}
	}
	return models.CardGroup{}, false
}

// ReplaceInstance returns a copy of groups with the instance sharing updated's id replaced.
//
// Blank identity and display fields on updated are kept from the current copy.
// ok is false, and groups is returned unchanged, when no instance has that id.
func ReplaceInstance(groups []models.CardGroup, updated models.Instance) ([]models.CardGroup, bool) {
	for gi, g := range groups {
		for ii, inst := range g.Instances {
			if inst.ID != updated.ID {
				continue
			}
			out := cloneGroups(groups)
			out[gi].Instances[ii] = merge(inst, updated)
			derive(&out[gi])
			return out, true
		}
	}
	return groups, false
}

// RemoveInstance returns a copy of groups without the instance with id. A group left empty is removed.
//
// ok is false, and groups is returned unchanged, when no instance has that id.
func RemoveInstance(groups []models.CardGroup, id int) ([]models.CardGroup, bool) {
	for gi, g := range groups {
		for ii, inst := range g.Instances {
			if inst.ID != id {
				continue
			}
			out := cloneGroups(groups)
			if len(g.Instances) == 1 {
				return append(out[:gi], out[gi+1:]...), true
			}
			out[gi].Instances = append(out[gi].Instances[:ii], out[gi].Instances[ii+1:]...)
			derive(&out[gi])
			return out, true
		}
	}
	return groups, false
}

// InsertInstance returns a copy of groups with inst appended to its group, or to a new group at the end.
func InsertInstance(groups []models.CardGroup, inst models.Instance) []models.CardGroup {
	out := cloneGroups(groups)
	key := inst.Key()
	for gi := range out {
		if out[gi].Key() == key {
			out[gi].Instances = append(out[gi].Instances, fillFromGroup(inst, out[gi]))
			derive(&out[gi])
			return out
		}
	}
	return append(out, Group([]models.Instance{inst})...)
}

// Summarize recounts instances per expansion.
//
// Known summaries keep their order and metadata; those left with no instances are dropped.
// Expansions present in instances but missing from known are appended in first-seen order.
func Summarize(instances []models.Instance, known []models.ExpansionSummary) []models.ExpansionSummary {
	counts := make(map[int]int)
	names := make(map[int]string)
	var order []int
	for _, inst := range instances {
		if _, seen := counts[inst.ExpansionID]; !seen {
			order = append(order, inst.ExpansionID)
			names[inst.ExpansionID] = inst.ExpansionName
		}
		counts[inst.ExpansionID]++
	}

	out := make([]models.ExpansionSummary, 0, len(order))
	listed := make(map[int]bool)
	for _, s := range known {
		if counts[s.ID] == 0 || listed[s.ID] {
			continue
		}
		s.UserCardsCount = counts[s.ID]
		out = append(out, s)
		listed[s.ID] = true
	}
	for _, id := range order {
		if listed[id] {
			continue
		}
		out = append(out, models.ExpansionSummary{ID: id, Name: names[id], UserCardsCount: counts[id]})
	}
	return out
}

// derive recomputes a group's totals from its instances.
func derive(g *models.CardGroup) {
	g.TotalQuantity = 0
	g.IsAnyFavorite = false
	for _, inst := range g.Instances {
		g.TotalQuantity += inst.Quantity
		g.IsAnyFavorite = g.IsAnyFavorite || inst.IsFavorite
	}
	g.InstancesCount = len(g.Instances)
}

func fillFromGroup(inst models.Instance, g models.CardGroup) models.Instance {
	inst.CardID = g.CardID
	inst.ExpansionID = g.ExpansionID
	if inst.CardName == "" {
		inst.CardName = g.CardName
	}
	if inst.ExpansionName == "" {
		inst.ExpansionName = g.ExpansionName
	}
	if inst.CardImage == "" {
		inst.CardImage = g.CardImage
	}
	return inst
}

func merge(current, updated models.Instance) models.Instance {
	updated.CardID = current.CardID
	updated.ExpansionID = current.ExpansionID
	if updated.CardName == "" {
		updated.CardName = current.CardName
	}
	if updated.ExpansionName == "" {
		updated.ExpansionName = current.ExpansionName
	}
	if updated.CardImage == "" {
		updated.CardImage = current.CardImage
	}
	if updated.CreatedAt.IsZero() {
		updated.CreatedAt = current.CreatedAt
	}
	return updated
}

func cloneGroups(groups []models.CardGroup) []models.CardGroup {
	out := make([]models.CardGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
