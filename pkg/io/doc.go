// Package io reads and writes framelink project documents as JSON.
//
// # Format
//
// A project document holds the canvas sizes and every frame with its layer
// tree:
//
//	{
//	  "sizes": [{"id": "A", "width": 300, "height": 250, "frame_ids": ["A_frame_1"]}],
//	  "frames": [{
//	    "id": "A_frame_1",
//	    "size_id": "A",
//	    "hidden": ["bg"],
//	    "layers": [
//	      {"id": "bg", "name": "Background", "visible": false},
//	      {"id": "logo", "name": "Logo", "visible": true,
//	       "locked": true, "linked": true, "link": {"group_id": "gif_...", "is_main": true}}
//	    ]
//	  }]
//	}
//
// Hidden sets are written as sorted id arrays so exports are stable. A frame
// with no "hidden" key gets one derived from its layers' visible flags; a
// frame that carries one keeps it as written, so a disagreement is left for
// the validator to report.
//
// # Validation
//
// [ReadJSON] rejects documents where a frame id repeats, a layer id repeats
// within a frame, an id is empty or malformed, or a size lists a frame that
// does not exist. Errors carry an INVALID_* code.
package io
