package ai

// InteractionPromptText instructs the model to report character
// interactions for one segment of narrative text as a nested JSON object.
// The schema passed alongside the request enforces the shape; the prompt
// repeats the contract because smaller models ignore schema constraints.
const InteractionPromptText = `You are analyzing a segment of a novel or other long-form narrative text.

Identify every character that appears in the segment and count how many times each pair of characters interacts. An interaction is a conversation, a meeting, a physical exchange, or any scene in which both characters actively take part. Use character names exactly as they appear in the text.

Respond with a single JSON object and nothing else. The object maps a character name to an object that maps each other character they interact with to {"interactions": N}, where N is a positive integer count. Do not include pairs that never interact. Do not include counts of zero. Do not wrap the JSON in markdown fences or add commentary.

Example response:
{"Alice":{"Bob":{"interactions":3}},"Bob":{"Carol":{"interactions":1}}}`
