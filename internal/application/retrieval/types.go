package retrieval

// SearchInput 知识库检索输入。
type SearchInput struct {
	OrganizationID string
	Query          string
	TopK           int

	// Topics 为空表示不过滤；非空则仅检索指定主题。
	Topics []string
}

type Chunk struct {
	ID     string
	Text   string
	Score  float64
	Topic  string
	Source string
}

type SearchOutput struct {
	Chunks []Chunk

	DisabledReason string
}

// IndexInput 知识库文档索引输入。
type IndexInput struct {
	OrganizationID string
	Source         string
	Topic          string
	Text           string
}
