// Package domain contains the task tracking entities (tasks, subtasks,
// tags, users), the acting identity, and the error classes shared by every
// layer. It has no knowledge of storage or transport.
package domain
