package referenceframe

// Preset tree names.
const (
	MarkerTreeName     = "marker"
	SensorTreeName     = "sensor"
	FullSensorTreeName = "sensor_full"
)

var markerSegments = []SegmentConfig{
	{Name: "Pelvis"},
	{Name: "Thorax", Parent: "Pelvis"},
	{Name: "Tete", Parent: "Thorax"},
	{Name: "BrasD", Parent: "Thorax"},
	{Name: "ABrasD", Parent: "BrasD"},
	{Name: "MainD", Parent: "ABrasD"},
	{Name: "BrasG", Parent: "Thorax"},
	{Name: "ABrasG", Parent: "BrasG"},
	{Name: "MainG", Parent: "ABrasG"},
	{Name: "CuisseD", Parent: "Pelvis"},
	{Name: "JambeD", Parent: "CuisseD"},
	{Name: "PiedD", Parent: "JambeD"},
	{Name: "CuisseG", Parent: "Pelvis"},
	{Name: "JambeG", Parent: "CuisseG"},
	{Name: "PiedG", Parent: "JambeG"},
}

var sensorSegments = []SegmentConfig{
	{Name: "Pelvis"},
	{Name: "T8", Parent: "Pelvis"},
	{Name: "Head", Parent: "T8"},
	{Name: "UpperArmR", Parent: "T8"},
	{Name: "LowerArmR", Parent: "UpperArmR"},
	{Name: "HandR", Parent: "LowerArmR"},
	{Name: "UpperArmL", Parent: "T8"},
	{Name: "LowerArmL", Parent: "UpperArmL"},
	{Name: "HandL", Parent: "LowerArmL"},
	{Name: "UpperLegR", Parent: "Pelvis"},
	{Name: "LowerLegR", Parent: "UpperLegR"},
	{Name: "FootR", Parent: "LowerLegR"},
	{Name: "UpperLegL", Parent: "Pelvis"},
	{Name: "LowerLegL", Parent: "UpperLegL"},
	{Name: "FootL", Parent: "LowerLegL"},
}

var fullSensorSegments = []SegmentConfig{
	{Name: "Pelvis"},
	{Name: "L5", Parent: "Pelvis"},
	{Name: "L3", Parent: "L5"},
	{Name: "T12", Parent: "L3"},
	{Name: "T8", Parent: "T12"},
	{Name: "Neck", Parent: "T8"},
	{Name: "Head", Parent: "Neck"},
	{Name: "ShoulderR", Parent: "T8"},
	{Name: "UpperArmR", Parent: "ShoulderR"},
	{Name: "LowerArmR", Parent: "UpperArmR"},
	{Name: "HandR", Parent: "LowerArmR"},
	{Name: "ShoulderL", Parent: "T8"},
	{Name: "UpperArmL", Parent: "ShoulderL"},
	{Name: "LowerArmL", Parent: "UpperArmL"},
	{Name: "HandL", Parent: "LowerArmL"},
	{Name: "UpperLegR", Parent: "Pelvis"},
	{Name: "LowerLegR", Parent: "UpperLegR"},
	{Name: "FootR", Parent: "LowerLegR"},
	{Name: "ToesR", Parent: "FootR"},
	{Name: "UpperLegL", Parent: "Pelvis"},
	{Name: "LowerLegL", Parent: "UpperLegL"},
	{Name: "FootL", Parent: "LowerLegL"},
	{Name: "ToesL", Parent: "FootL"},
}

// MarkerTree is the fifteen segment body used with optical marker recordings.
func MarkerTree() *Tree {
	return mustTree(MarkerTreeName, markerSegments)
}

// SensorTree is the fifteen segment body used with inertial sensor recordings.
func SensorTree() *Tree {
	return mustTree(SensorTreeName, sensorSegments)
}

// FullSensorTree is the complete twenty three segment inertial body, spine and shoulders included.
func FullSensorTree() *Tree {
	return mustTree(FullSensorTreeName, fullSensorSegments)
}

// PresetTree returns a preset by name.
func PresetTree(name string) (*Tree, error) {
	switch name {
	case MarkerTreeName:
		return MarkerTree(), nil
	case SensorTreeName:
		return SensorTree(), nil
	case FullSensorTreeName:
		return FullSensorTree(), nil
	default:
		return nil, NewUnknownPresetError(name)
	}
}

func mustTree(name string, cfgs []SegmentConfig) *Tree {
	t, err := NewTree(name, cfgs)
	if err != nil {
		panic(err)
	}
	return t
}
