package openai

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

type Tool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  int      `json:"max_num_results,omitempty"`
}

// FileSearchTool binds retrieval over the given vector stores.
func FileSearchTool(vectorStoreIDs []string, maxResults int) Tool {
	return Tool{Type: "file_search", VectorStoreIDs: vectorStoreIDs, MaxNumResults: maxResults}
}

func WebSearchTool() Tool { return Tool{Type: "web_search_preview"} }

type ResponseRequest struct {
	Model           string    `json:"model"`
	Input           []Message `json:"input"`
	Tools           []Tool    `json:"tools,omitempty"`
	MaxOutputTokens int       `json:"max_output_tokens,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type OutputItem struct {
	ID      string        `json:"id,omitempty"`
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Status  string        `json:"status,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
}

// Usage accepts both the Responses and the chat-completions field names.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

func (u *Usage) normalized() Usage {
	if u == nil {
		return Usage{}
	}
	out := *u
	if out.InputTokens == 0 && out.OutputTokens == 0 {
		out.InputTokens, out.OutputTokens = out.PromptTokens, out.CompletionTokens
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.InputTokens + out.OutputTokens
	}
	return out
}

// Counts returns prompt, completion and total tokens; ok is false when the
// response carried no usage record.
func (u *Usage) Counts() (prompt, completion, total int, ok bool) {
	n := u.normalized()
	if n.InputTokens == 0 && n.OutputTokens == 0 && n.TotalTokens == 0 {
		return 0, 0, 0, false
	}
	return n.InputTokens, n.OutputTokens, n.TotalTokens, true
}

type Response struct {
	ID     string       `json:"id,omitempty"`
	Model  string       `json:"model,omitempty"`
	Status string       `json:"status,omitempty"`
	Output []OutputItem `json:"output"`
	Usage  *Usage       `json:"usage,omitempty"`
}
