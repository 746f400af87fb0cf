/*
Package canvas implements the canonical canvas document and the rules for
changing it.

The document is a single artboard node with a flat list of absolutely
positioned children, plus free-form global CSS and JavaScript text. Store is
the only writer; it validates ids, required geometry and style declarations
before mutating, and hands out deep copies so callers never share state with
it.

# Style classification

Style maps are flat key/value objects. Classify splits them into three
buckets:

  - keyframe blocks: keys starting with "@keyframes"
  - pseudo-selector blocks: keys starting with "&" or containing ":"
  - base declarations: everything else

Per-element style updates accept base declarations only. Pseudo-selector and
keyframe blocks are global by nature and must be written through the global
stylesheet instead.

# Merging

Style updates are shallow merges: keys present in the update overwrite the
node's keys, all other keys are kept. Only CSS and JavaScript text are
replaced wholesale.
*/
package canvas
