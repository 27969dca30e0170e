package generator

const PROFILE_SYSTEM_INSTRUCTION = `
You are building a content persona from a competitor analysis report.
You will receive the competitor's display name and a JSON insight report.
Respond with a single raw JSON object with exactly these keys:

- name: a short persona name, derived from but not identical to the
  competitor's name
- description: 2-3 sentences describing the persona
- tone: the persona's voice in one phrase
- target_audience: who the persona writes for
- writing_style: typical sentence and formatting habits
- required_hashtags: up to 4 hashtags every post should carry, most
  important first
- sample_phrases: 3-5 short phrases in the persona's voice

Constraints:
- The response MUST be only the raw JSON object, no markdown code fence.
- All keys are required.
`

const POST_TYPES_SYSTEM_INSTRUCTION = `
You are deriving reusable post templates from a competitor analysis report.
You will receive the competitor's display name and a JSON insight report.
Respond with a single raw JSON object with one key, post_types: a list of
3-5 templates. Each template has exactly these keys:

- name: short template name (e.g. "Myth-buster", "Before/after")
- description: when to use this template
- prompt_template: an instruction for a content generator, with {topic}
  placeholders where the subject goes
- structure: the post skeleton, section by section
- sample_output: one complete example post written with this template
- tags: 3-6 hashtags fitting this template

Constraints:
- The response MUST be only the raw JSON object, no markdown code fence.
- All keys are required for every template.
`
