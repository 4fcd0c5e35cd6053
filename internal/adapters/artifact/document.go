package artifact

// document mirrors the on-disk bundle. YAML and JSON encodings share it.
type document struct {
	Version  string                `yaml:"version"`
	Schema   schemaDoc             `yaml:"schema"`
	Encoders map[string]encoderDoc `yaml:"encoders"`
	Scaler   scalerDoc             `yaml:"scaler"`
	Model    modelDoc              `yaml:"model"`
	Meta     map[string]string     `yaml:"meta,omitempty"`
}

type schemaDoc struct {
	Version string      `yaml:"version"`
	Columns []columnDoc `yaml:"columns"`
}

type columnDoc struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Field string `yaml:"field,omitempty"`
	Token string `yaml:"token,omitempty"`
}

type encoderDoc struct {
	Classes      []string `yaml:"classes"`
	MissingValue string   `yaml:"missing_value,omitempty"`
	Unknown      string   `yaml:"unknown,omitempty"`
	FallbackCode *int     `yaml:"fallback_code,omitempty"`
}

type scalerDoc struct {
	Kind  string    `yaml:"kind"`
	Mean  []float64 `yaml:"mean,omitempty"`
	Min   []float64 `yaml:"min,omitempty"`
	Scale []float64 `yaml:"scale,omitempty"`
	Dim   int       `yaml:"dim,omitempty"`
}

type modelDoc struct {
	Kind         string    `yaml:"kind"`
	Coef         []float64 `yaml:"coef,omitempty"`
	Intercept    float64   `yaml:"intercept,omitempty"`
	NFeatures    int       `yaml:"n_features,omitempty"`
	Aggregation  string    `yaml:"aggregation,omitempty"`
	BaseScore    float64   `yaml:"base_score,omitempty"`
	LearningRate float64   `yaml:"learning_rate,omitempty"`
	Trees        []treeDoc `yaml:"trees,omitempty"`
}

type treeDoc struct {
	Nodes []nodeDoc `yaml:"nodes"`
}

// nodeDoc is a tree node. Leaves may omit left and right.
type nodeDoc struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      *int    `yaml:"left,omitempty"`
	Right     *int    `yaml:"right,omitempty"`
	Value     float64 `yaml:"value"`
}
