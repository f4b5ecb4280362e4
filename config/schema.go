package config

// Option names. A destination override of option o for destination d is the
// property "o.d".
const (
	ConnectionURI          = "mongodb.connection.uri"
	Collection             = "mongodb.collection"
	Collections            = "mongodb.collections"
	MaxNumRetries          = "mongodb.max.num.retries"
	RetriesDeferTimeout    = "mongodb.retries.defer.timeout"
	ValueProjectionType    = "mongodb.value.projection.type"
	ValueProjectionList    = "mongodb.value.projection.list"
	DocumentIDStrategy     = "mongodb.document.id.strategy"
	DocumentIDStrategies   = "mongodb.document.id.strategies"
	KeyProjectionType      = "mongodb.key.projection.type"
	KeyProjectionList      = "mongodb.key.projection.list"
	FieldRenamerMapping    = "mongodb.field.renamer.mapping"
	FieldRenamerRegExp     = "mongodb.field.renamer.regexp"
	PostProcessorChain     = "mongodb.post.processor.chain"
	ChangeDataCapture      = "mongodb.change.data.capture.handler"
	ChangeDataCaptureNames = "mongodb.change.data.capture.handlers"
	DeleteOnNullValues     = "mongodb.delete.on.null.values"
	WriteModelStrategy     = "mongodb.writemodel.strategy"
	MaxBatchSize           = "mongodb.max.batch.size"
	RateLimitingTimeout    = "mongodb.rate.limiting.timeout"
	RateLimitingEveryN     = "mongodb.rate.limiting.every.n"
)

// DefaultDestination is the reserved destination meaning "no override, use
// the shared default".
const DefaultDestination = "__default__"

// ParamSpec declares one recognised option.
type ParamSpec struct {
	Name        string   // property name (e.g., "mongodb.max.batch.size")
	Type        string   // "string", "int", "bool"
	Default     string   // raw default value
	Description string   // human-readable description
	Validations []string // validation rules: "min:0", "enum:a,b", "name", "names"
}

var schema = []ParamSpec{
	{Name: ConnectionURI, Type: "string", Default: "mongodb://localhost:27017/kafkaconnect?w=1&journal=true",
		Description: "the mongodb connection URI as supported by the official drivers"},
	{Name: Collection, Type: "string", Default: "",
		Description: "single sink collection name to write to"},
	{Name: Collections, Type: "string", Default: "",
		Description: "names of sink collections for which destination specific properties can be defined"},
	{Name: MaxNumRetries, Type: "int", Default: "3", Validations: []string{"min:0"},
		Description: "how often a retry should be done on write errors"},
	{Name: RetriesDeferTimeout, Type: "int", Default: "5000", Validations: []string{"min:0"},
		Description: "how long in ms a retry should get deferred"},
	{Name: ValueProjectionType, Type: "string", Default: "none", Validations: []string{"enum:none,blacklist,whitelist"},
		Description: "whether or not and which value projection to use"},
	{Name: ValueProjectionList, Type: "string", Default: "",
		Description: "comma separated list of field names for value projection"},
	{Name: DocumentIDStrategy, Type: "string", Default: "bson_oid", Validations: []string{"name"},
		Description: "name of the strategy used to generate a unique document id (_id)"},
	{Name: DocumentIDStrategies, Type: "string", Default: "", Validations: []string{"names"},
		Description: "comma separated list of custom id strategy names to allow"},
	{Name: KeyProjectionType, Type: "string", Default: "none", Validations: []string{"enum:none,blacklist,whitelist"},
		Description: "whether or not and which key projection to use"},
	{Name: KeyProjectionList, Type: "string", Default: "",
		Description: "comma separated list of field names for key projection"},
	{Name: FieldRenamerMapping, Type: "string", Default: "[]",
		Description: "inline JSON array with objects describing field name mappings"},
	{Name: FieldRenamerRegExp, Type: "string", Default: "[]",
		Description: "inline JSON array with objects describing regexp settings"},
	{Name: PostProcessorChain, Type: "string", Default: "document_id_adder", Validations: []string{"names"},
		Description: "comma separated list of stage names to build the pipeline with"},
	{Name: ChangeDataCapture, Type: "string", Default: "", Validations: []string{"name"},
		Description: "name of the CDC handler to use for processing"},
	{Name: ChangeDataCaptureNames, Type: "string", Default: "", Validations: []string{"names"},
		Description: "comma separated list of custom CDC handler names to allow"},
	{Name: DeleteOnNullValues, Type: "bool", Default: "false",
		Description: "whether or not to delete documents based on key when the value is null"},
	{Name: WriteModelStrategy, Type: "string", Default: "replace_one_default", Validations: []string{"name"},
		Description: "how to build the write models for the sink documents"},
	{Name: MaxBatchSize, Type: "int", Default: "0", Validations: []string{"min:0"},
		Description: "maximum number of sink records to possibly batch together for processing"},
	{Name: RateLimitingTimeout, Type: "int", Default: "0", Validations: []string{"min:0"},
		Description: "how long in ms processing should wait before continuing"},
	{Name: RateLimitingEveryN, Type: "int", Default: "0", Validations: []string{"min:0"},
		Description: "after how many processed batches the rate limit should trigger (no rate limiting if 0)"},
}

var schemaByName = func() map[string]ParamSpec {
	m := make(map[string]ParamSpec, len(schema))
	for _, s := range schema {
		m[s.Name] = s
	}
	return m
}()

// Schema returns the declared options in declaration order.
func Schema() []ParamSpec {
	out := make([]ParamSpec, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the declaration of option name.
func Lookup(name string) (ParamSpec, bool) {
	s, ok := schemaByName[name]
	return s, ok
}
