package matrix

import (
	"fmt"
	"strings"

	"github.com/pable/go-cm-stats/internal/aggregator"
	"github.com/pable/go-cm-stats/internal/classify"
	"github.com/pable/go-cm-stats/internal/model"
)

// ParseAxis accepts the column name or "speed", "stamina", "other".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "speed", "speed_count":
		return SpeedCount, nil
	case "stamina", "stamina_count":
		return StaminaCount, nil
	case "other", "other_count":
		return OtherCount, nil
	}
	return "", fmt.Errorf("unknown axis %q (want speed, stamina or other)", s)
}

// project keeps only the coordinates named by the axes.
func project(c model.DebuffCounts, axes ...Axis) model.DebuffCounts {
	var out model.DebuffCounts
	for _, a := range axes {
		switch a {
		case SpeedCount:
			out.Speed = c.Speed
		case StaminaCount:
			out.Stamina = c.Stamina
		case OtherCount:
			out.Other = c.Other
		}
	}
	return out
}

// Categorizer groups teams by the role-gated counts on the two axes, so that
// each group lands on exactly one matrix cell. Labels read "row/col".
func Categorizer(table *classify.Table, rowAxis, colAxis Axis) (aggregator.Categorizer, error) {
	if rowAxis == colAxis {
		return nil, fmt.Errorf("row and column axis are both %s", rowAxis)
	}
	for _, a := range []Axis{rowAxis, colAxis} {
		if _, err := a.of(model.Category{}); err != nil {
			return nil, err
		}
	}
	return func(row model.Row, round string) model.Category {
		c := project(classify.CountDebuffers(row, round, table), rowAxis, colAxis)
		cat := model.Category{Counts: c}
		r, _ := rowAxis.of(cat)
		k, _ := colAxis.of(cat)
		cat.Label = fmt.Sprintf("%d/%d", r, k)
		return cat
	}, nil
}
