package triage

import "fmt"

const classifierPromptTemplate = `You are a smart email classifier.

Classify the following email into one of the following categories:
- JOB: Job offers, interview calls, recruiter emails
- SPAM: Promotions, sales, scams, irrelevant emails
- PERSONAL: Friends, family, personal conversations
- OTHER: System notifications, newsletters, etc.

Only respond with: JOB, SPAM, PERSONAL, or OTHER.

Email:
Subject: %s
Body: %s
OCR Text: %s`

const extractorPromptTemplate = `Extract the following info from this email: interview date, interview time, recruiter name, company name.
If info is missing, respond with null values.

Email:
Subject: %s
Body: %s
OCR Text: %s

Respond only with JSON like:
{
  "interview_date": "YYYY-MM-DD" or null,
  "interview_time": "HH:MM" or null,
  "recruiter_name": string or null,
  "company_name": string or null
}`

// Input is the text a message contributes to a prompt.
type Input struct {
	Subject string
	Body    string
	OCRText string
}

func classifierPrompt(in Input) string {
	return fmt.Sprintf(classifierPromptTemplate, in.Subject, in.Body, in.OCRText)
}

func extractorPrompt(in Input) string {
	return fmt.Sprintf(extractorPromptTemplate, in.Subject, in.Body, in.OCRText)
}
