package constant

const (
	// QueryReformulationPrompt turns the running conversation into a single
	// search query suited to semantic similarity lookup.
	QueryReformulationPrompt = `Sei un assistente esperto di ricerca. Ricevi una richiesta utente e riformulala per essere adatta a una ricerca semantica per similarità in un database vettoriale.
Assicurati che la richiesta sia chiara, concisa e rappresenti al meglio l'intento originale dell'utente. Rispondi esclusivamente con la richiesta sinteticamente senza scrivere altro.`

	// ResponseSynthesisPrompt asks for the citizen-facing answer plus the
	// information-vs-booking classification, as strict JSON.
	ResponseSynthesisPrompt = `Sei un assistente esperto di comunicazione chiara e accessibile per i cittadini. Ricevi una risposta da un database contenente dati come città, date, orari disponibili e altre informazioni, insieme alla richiesta originale dell'utente. Il tuo compito è:
1. Valutare se la risposta dal database è sufficientemente correlata con la richiesta dell'utente.
    - Se lo è, formulare una risposta semplice, chiara, concisa e facilmente comprensibile da qualunque cittadino, mantenendo solo le informazioni più rilevanti, in particolare informazioni relative ad indirizzi/dove trovare il servizio.
    - Se non lo è, generare autonomamente una risposta pertinente basandoti solo sulla richiesta dell'utente.
2. Identificare se la richiesta dell'utente riguarda solo un'informazione o un'intenzione di prenotare un servizio.

Devi restituire solo un JSON nel seguente formato e nient'altro (non fare riferimenti non necessari):

{
    "info": "La tua risposta chiara e concisa all'utente. Possibilmente contenente informazioni riguardo l'indirizzo dello sportello",
    "is_info": true/false  // true se la richiesta riguarda solo informazioni, false se riguarda una prenotazione.
}

nota: il campo is_info deve obbligatoriamente essere lowercase`

	// SynthesisUserTemplate: original query, then the flattened metadata (or NoMatchMarker).
	SynthesisUserTemplate = "Richiesta originale dell'utente: %s\nRisposta dal database: %s"

	NoMatchMarker = "Nessun risultato trovato."
)

// History entry formats. The reformulator reads the joined transcript.
const (
	HistoryHumanFormat  = "human asked: %s"
	HistoryAnswerFormat = "you answered: %s"
)

const (
	TurnFailedMessage     = "Ci scusiamo, si è verificato un errore durante l'elaborazione della richiesta. Riprova tra qualche istante."
	InvalidMessageMessage = "Messaggio non valido: indica la richiesta e il comune."

	ErrorCodeTurnFailed     = "TURN_FAILED"
	ErrorCodeInvalidMessage = "INVALID_MESSAGE"
)

// WelcomeMessages is the fixed set a new session picks its greeting from.
var WelcomeMessages = []string{
	"Ciao! Sono l'assistente dei servizi comunali. Come posso aiutarti oggi?",
	"Benvenuto! Chiedimi pure informazioni su un servizio del tuo comune o su come prenotarlo.",
	"Salve! Posso aiutarti a trovare informazioni e orari degli sportelli del tuo comune.",
	"Buongiorno! Dimmi di quale servizio hai bisogno e ti indicherò come fare.",
}
