/*
Package status defines the per-path ClearCase status and how it is shown.

🎯 Purpose:
- One FileStatus per path per reconciliation pass
- Console rendering of statuses (colored, aligned)

Statuses are recomputed on every pass. The only statuses that survive between
passes are the one-shot "just checked out" and "merge conflict" flags kept by
the session (see pkg/state).
*/
package status
