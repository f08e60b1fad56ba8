package split

// splitSystemPrompt frames the model as a decomposition specialist.
const splitSystemPrompt = `You split research plans into independent subtasks for parallel researchers. You respond with structured JSON only.`

// splitPrompt is the template for the first split attempt.
const splitPrompt = `Break this research plan into between %d and %d independent subtasks. Each
subtask goes to a separate researcher who will not see the others' work.

Research plan:
%s

Return ONLY a JSON array with this exact structure (no other text):
[
  {
    "id": "short-stable-slug",
    "title": "Short subtask title",
    "instructions": "What this researcher should investigate, in detail"
  }
]

Rules:
- Every id must be unique
- Subtasks should not overlap in scope and should jointly cover the plan
- Each subtask must stand alone: its instructions may not reference other subtasks
- Instructions should name the angles and kinds of sources to pursue`

// repairPrompt is the clarifying follow-up used for the single bounded
// repair attempt after a structural failure.
const repairPrompt = `Your previous task list was rejected: %[4]s

Try again. Break this research plan into between %[1]d and %[2]d independent subtasks.

Research plan:
%[3]s

Respond with ONLY a JSON array of objects, each with non-empty "id", "title",
and "instructions" fields and no duplicate ids. No prose, no code fences.`
