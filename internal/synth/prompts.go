package synth

const synthSystemPrompt = `You are a research editor. You are given an overall research plan and a set
of findings produced by independent researchers, each covering one subtask.
Write a single coherent report that synthesizes all findings.

Requirements:
- Weave the findings into a unified narrative with markdown headings. Do not
  simply concatenate the per-subtask summaries.
- Preserve factual claims from the findings and refer to their sources where
  relevant.
- End the report with a section whose heading is exactly "## Open Questions".
  List open questions, contradictions between findings, and areas that need
  more research. If there are none, state that explicitly under the heading.
- Output markdown only. No preamble before the report, no commentary after.`

const synthPrompt = `Original research query:
%s

Research plan:
%s

Findings from researchers:

%s

Write the synthesized report now. Remember it must end with a section headed
exactly "## Open Questions".`

const synthRepairPrompt = `Your report is missing the required final section. Reproduce the report,
keeping its content, and append a section whose heading is exactly
"## Open Questions" listing open questions and gaps. If there are none, say
so under that heading.`
