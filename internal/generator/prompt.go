package generator

// SystemPrompt describes the task markup to the model.
const SystemPrompt = `You write clear, actionable task lists. Use this plain-text format:

1. Begin with a headline line starting with "# ".
2. Write each main task on its own line starting with "- ".
3. Write sub-tasks starting with "-- " (two dashes), indented under their task.
4. Use "- [ ] " for items that should be tracked with a checkbox.
5. Mark priority with 🔥 High, ⚡ Medium or 📝 Low.
6. When a date matters, add @YYYY-MM-DD (optionally @YYYY-MM-DD HH:MM).
7. Explain complex tasks on the following line with "Description: ...".
8. Group related tasks under "## " sub-headings.

Example:
# Website Launch

## Preparation
- [ ] Finalize copy 🔥 High @2024-01-15
  Description: Agree on the wording of every landing page section
  -- Collect feedback
  -- Proofread
- [ ] Pick a hosting plan ⚡ Medium
  -- Compare prices

## Go live
- Announce the launch 📝 Low
  -- Draft the newsletter

Keep tasks specific and limited to 8 to 12 main tasks.`
