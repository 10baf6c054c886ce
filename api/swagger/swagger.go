package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Session-scoped timetable workspace: time grid, schedule edits with audit and revert, projected views, workload distribution and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Sessions",
            "description": "Wizard workspaces and time grid"
        },
        {
            "name": "Timetable",
            "description": "Solver payload load and snapshot"
        },
        {
            "name": "Views",
            "description": "Projected grids and room availability"
        },
        {
            "name": "Edits",
            "description": "Manual edits, audit log and revert"
        },
        {
            "name": "Workload",
            "description": "Faculty allocation"
        },
        {
            "name": "Exports",
            "description": "CSV, PDF, XLSX and ICS exports"
        },
        {
            "name": "Roster",
            "description": "Department faculty and rooms"
        },
        {
            "name": "Observability",
            "description": "Metrics"
        }
    ],
    "paths": {
        "/sessions": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Create a timetable session from wizard data",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Session summary",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Drop a session",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/timing": {
            "put": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Replace the bell schedule",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateTimingRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/grid": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Derived time grid",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/timetable": {
            "put": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Load the solver result",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LoadTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Malformed or overlapping payload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Current schedule in the solver shape",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/entities": {
            "get": {
                "tags": [
                    "Views"
                ],
                "summary": "Selectable entities for a view mode",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "mode",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "MASTER, TEACHER, CLASSROOM or LAB"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/views/{mode}": {
            "get": {
                "tags": [
                    "Views"
                ],
                "summary": "Projected weekly grid for one entity",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "mode",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "MASTER, TEACHER, CLASSROOM or LAB"
                    },
                    {
                        "name": "entity",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Division, teacher or room"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Timing not configured",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "410": {
                        "description": "Session not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/cell": {
            "get": {
                "tags": [
                    "Views"
                ],
                "summary": "Projection of a single day and slot",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "mode",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "View mode"
                    },
                    {
                        "name": "entity",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Entity"
                    },
                    {
                        "name": "day",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Day"
                    },
                    {
                        "name": "slot",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Backend slot index"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/rooms/free": {
            "get": {
                "tags": [
                    "Views"
                ],
                "summary": "Rooms unused at a day and slot",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "day",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Day"
                    },
                    {
                        "name": "slot",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Backend slot index"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/entries": {
            "post": {
                "tags": [
                    "Edits"
                ],
                "summary": "Place an entry manually",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddEntryRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Slot occupied",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Timing not configured",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Edits"
                ],
                "summary": "Remove the entry covering a slot",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DeleteEntryRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "No entry at slot",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/audit": {
            "get": {
                "tags": [
                    "Edits"
                ],
                "summary": "Edit history, newest first",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page"
                    },
                    {
                        "name": "pageSize",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page size"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/audit/{entryId}/revert": {
            "post": {
                "tags": [
                    "Edits"
                ],
                "summary": "Undo a logged edit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "entryId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Audit log entry ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown log entry",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Revert precondition failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/workload": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Current allocation and unassigned theory options",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Workload"
                ],
                "summary": "Reset every priority slot",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/workload/options": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Assignable theory and lab options",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/workload/auto-assign": {
            "post": {
                "tags": [
                    "Workload"
                ],
                "summary": "Distribute options round-robin across faculty",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/workload/preferences": {
            "put": {
                "tags": [
                    "Workload"
                ],
                "summary": "Fill or clear one priority slot",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SetPreferenceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown faculty",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/workload/allocations": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Solver-facing subject allocation records",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Workload"
                ],
                "summary": "Rebuild the allocation from synchronized records",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AllocationsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/export": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Render a view as a file",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "mode",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "View mode"
                    },
                    {
                        "name": "entity",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Entity"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "csv, pdf, xlsx or ics"
                    },
                    {
                        "name": "weekStart",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Calendar start (YYYY-MM-DD)"
                    },
                    {
                        "name": "weeks",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Recurrence count"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "produces": [
                    "application/octet-stream"
                ]
            }
        },
        "/sessions/{id}/exports": {
            "post": {
                "tags": [
                    "Exports"
                ],
                "summary": "Queue a background export",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExportQuery"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Background exports disabled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Background export status",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Export job ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown job",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a finished export",
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Signed token"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Invalid or expired token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "produces": [
                    "application/octet-stream"
                ]
            }
        },
        "/roster/faculty": {
            "get": {
                "tags": [
                    "Roster"
                ],
                "summary": "List department faculty",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Roster database disabled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/roster/rooms": {
            "get": {
                "tags": [
                    "Roster"
                ],
                "summary": "List department rooms",
                "parameters": [
                    {
                        "name": "kind",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "THEORY or LAB"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Roster database disabled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Lightweight metrics summary",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "TimingConfig": {
            "type": "object",
            "properties": {
                "startTime": {
                    "type": "string"
                },
                "slotDuration": {
                    "type": "integer"
                },
                "recessAfterSlot": {
                    "type": "integer"
                },
                "recessDuration": {
                    "type": "integer"
                },
                "totalSlots": {
                    "type": "integer"
                },
                "workingDays": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "department": {
                    "type": "string"
                },
                "timing": {
                    "$ref": "#/definitions/TimingConfig"
                },
                "classes": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "curriculum": {
                    "type": "object"
                },
                "faculty": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "infrastructure": {
                    "type": "object"
                }
            }
        },
        "UpdateTimingRequest": {
            "type": "object",
            "properties": {
                "startTime": {
                    "type": "string"
                },
                "slotDuration": {
                    "type": "integer"
                },
                "recessAfterSlot": {
                    "type": "integer"
                },
                "recessDuration": {
                    "type": "integer"
                },
                "totalSlots": {
                    "type": "integer"
                },
                "workingDays": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "Entry": {
            "type": "object",
            "properties": {
                "slot": {
                    "type": "integer"
                },
                "duration": {
                    "type": "integer"
                },
                "type": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "teacher": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "groups": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "batches": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                }
            }
        },
        "LoadTimetableRequest": {
            "type": "object",
            "properties": {
                "totalGaps": {
                    "type": "integer"
                },
                "unplacedLectures": {
                    "type": "integer"
                },
                "fitnessScore": {
                    "type": "number"
                },
                "timetable": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "object",
                        "additionalProperties": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/Entry"
                            }
                        }
                    }
                }
            }
        },
        "AddEntryRequest": {
            "type": "object",
            "properties": {
                "division": {
                    "type": "string"
                },
                "day": {
                    "type": "string"
                },
                "slot": {
                    "type": "integer"
                },
                "duration": {
                    "type": "integer"
                },
                "type": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "teacher": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "groups": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "batches": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                }
            }
        },
        "DeleteEntryRequest": {
            "type": "object",
            "properties": {
                "division": {
                    "type": "string"
                },
                "day": {
                    "type": "string"
                },
                "slot": {
                    "type": "integer"
                }
            }
        },
        "SetPreferenceRequest": {
            "type": "object",
            "properties": {
                "facultyId": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "index": {
                    "type": "integer"
                },
                "value": {
                    "type": "string"
                }
            }
        },
        "AllocationsRequest": {
            "type": "object",
            "properties": {
                "allocations": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "subjectId": {
                                "type": "string"
                            },
                            "subjectName": {
                                "type": "string"
                            },
                            "divisions": {
                                "type": "object",
                                "additionalProperties": {
                                    "type": "string"
                                }
                            }
                        }
                    }
                }
            }
        },
        "ExportQuery": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string"
                },
                "entity": {
                    "type": "string"
                },
                "format": {
                    "type": "string"
                },
                "weekStart": {
                    "type": "string"
                },
                "weeks": {
                    "type": "integer"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
