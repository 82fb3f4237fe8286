package combat

// Formula combines an attack score and a defense score into the effect score
// looked up in the band table.
type Formula interface {
	EffectScore(attack, defense int) (int, error)
}

// OffsetFormula scores attack - defense + Offset. With an offset of 50 two
// equal scores land in the middle of the default bands.
type OffsetFormula struct {
	Offset int
}

// EffectScore implements Formula.
func (f OffsetFormula) EffectScore(attack, defense int) (int, error) {
	return attack - defense + f.Offset, nil
}
