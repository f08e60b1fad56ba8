package planner

// planSystemPrompt frames the model as a research lead.
const planSystemPrompt = `You are a research lead. You design thorough, practical research plans that can be divided among independent researchers.`

// planPrompt is the template for plan generation.
const planPrompt = `Write a research plan for the following question.

Question:
%s

The plan should:
- Identify the major angles the question needs covered
- Name the kinds of sources worth consulting for each angle
- Call out likely points of disagreement or uncertainty
- Be concrete enough that each angle could be handed to a separate researcher

Write the plan as plain prose with short sections. Do not produce a task list
or JSON; that happens in a later step.`
