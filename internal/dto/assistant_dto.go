package dto

// InboundMessage is one user frame on the chat socket.
type InboundMessage struct {
	Message string `json:"message" validate:"required,max=2000"`
	City    string `json:"city" validate:"max=100"`
}

type LLMResponse struct {
	Info   string `json:"info"`
	IsInfo bool   `json:"is_info"`
}

// AssistantReply carries schedule and requirements as returned by the corpus.
// They are null when nothing matched and absent on the welcome frame.
type AssistantReply struct {
	LLMResponse LLMResponse `json:"llm_response"`
	Response    interface{} `json:"response"`
	Info        interface{} `json:"info"`
}

type WelcomeReply struct {
	LLMResponse LLMResponse `json:"llm_response"`
}

type OutboundEnvelope struct {
	Message interface{} `json:"message"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// TurnResult is what one completed turn produced.
type TurnResult struct {
	Info         string
	IsInfo       bool
	Schedule     interface{}
	Requirements interface{}
	Degraded     bool
	Matched      bool
	DocumentID   string
	Score        float64
	Reformulated string
}

func NewReplyEnvelope(r *TurnResult) OutboundEnvelope {
	return OutboundEnvelope{Message: AssistantReply{
		LLMResponse: LLMResponse{Info: r.Info, IsInfo: r.IsInfo},
		Response:    r.Schedule,
		Info:        r.Requirements,
	}}
}

func NewWelcomeEnvelope(text string) OutboundEnvelope {
	return OutboundEnvelope{Message: WelcomeReply{
		LLMResponse: LLMResponse{Info: text, IsInfo: true},
	}}
}

func NewErrorEnvelope(code, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: ErrorBody{Code: code, Message: message}}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Sessions  int    `json:"sessions"`
}

type MunicipalitiesResponse struct {
	Municipalities []string `json:"municipalities"`
}
